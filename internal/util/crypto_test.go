package util

import (
	"bytes"
	"testing"
	"time"
)

// ============ 签名密钥派生测试 ============

func TestSigningKey(t *testing.T) {
	k1 := SigningKey("secret-a")
	k2 := SigningKey("secret-a")
	k3 := SigningKey("secret-b")

	if len(k1) != 32 {
		t.Errorf("密钥长度应为 32，实际 %d", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Error("相同 secret 应派生相同密钥")
	}
	if bytes.Equal(k1, k3) {
		t.Error("不同 secret 不应派生相同密钥")
	}
}

// ============ 随机字符串测试 ============

func TestRandomString(t *testing.T) {
	str, err := RandomString(32)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if len(str) != 32 {
		t.Errorf("长度错误: 期望32，实际%d", len(str))
	}

	str2, _ := RandomString(32)
	if str == str2 {
		t.Error("应生成不同的随机字符串")
	}

	if _, err := RandomString(0); err == nil {
		t.Error("长度0应返回错误")
	}
	if _, err := RandomString(-5); err == nil {
		t.Error("负数长度应返回错误")
	}
}

// ============ 会话 token 测试 ============

func TestGenerateParseToken(t *testing.T) {
	key := SigningKey("test-secret")

	tokenStr, err := GenerateToken(key, "sid-123", time.Hour)
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	claims, err := ParseToken(key, tokenStr)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if claims.SessionID != "sid-123" {
		t.Errorf("会话 id 错误: %q", claims.SessionID)
	}
}

func TestParseTokenWrongKey(t *testing.T) {
	tokenStr, _ := GenerateToken(SigningKey("key-a"), "sid-123", time.Hour)
	if _, err := ParseToken(SigningKey("key-b"), tokenStr); err == nil {
		t.Error("错误密钥签名的 token 不应通过验证")
	}
}

func TestParseTokenExpired(t *testing.T) {
	key := SigningKey("test-secret")
	tokenStr, _ := GenerateToken(key, "sid-123", -time.Minute)
	if _, err := ParseToken(key, tokenStr); err == nil {
		t.Error("过期 token 不应通过验证")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken(SigningKey("x"), "not-a-token"); err == nil {
		t.Error("乱码不应通过验证")
	}
}
