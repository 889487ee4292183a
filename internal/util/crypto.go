package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// cookie 签名密钥派生用的固定盐；配置的 secret 才是真正的秘密
var signingSalt = []byte("filepanel.session.v1")

// SigningKey 用 PBKDF2+SHA256 把配置的会话密钥拉伸成 32 字节签名密钥，
// 避免直接拿短配置串当 HMAC key。启动时算一次即可。
func SigningKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), signingSalt, 100_000, 32, sha256.New)
}

// RandomString 生成指定长度的随机字符串（URL 安全，用于密钥、token 等）。
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}
