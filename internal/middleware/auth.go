package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filepanel/internal/models"
	"filepanel/internal/session"
	"filepanel/internal/util"
)

// 身份和会话 id 在 gin context 里的键
const (
	identityKey  = "currentIdentity"
	sessionIDKey = "currentSessionID"
)

// IdentityFrom 取出鉴权中间件放进去的身份，没有则返回 nil。
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, ok := v.(*models.Identity)
	if !ok {
		return nil
	}
	return id
}

// SessionIDFrom 取出当前请求的会话 id，供登出销毁会话用。
func SessionIDFrom(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Lookup 从请求里解出会话，不中断请求，供 /api/session 和页面路由使用。
// cookie 缺失、签名不对、会话不存在或已过期都返回 nil。
func Lookup(c *gin.Context, cookieName string, key []byte, sessions *session.Store) *models.Session {
	tokenStr, err := c.Cookie(cookieName)
	if err != nil || tokenStr == "" {
		return nil
	}
	claims, err := util.ParseToken(key, tokenStr)
	if err != nil {
		return nil
	}
	sess, err := sessions.Get(claims.SessionID)
	if err != nil {
		return nil
	}
	return sess
}

// AuthMiddleware 校验会话 cookie，并在 context 里放入当前身份。
// 未通过时：偏好 HTML 的浏览器请求重定向到登录页，API 请求返回 401。
func AuthMiddleware(cookieName string, key []byte, sessions *session.Store, adminPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := Lookup(c, cookieName, key, sessions)
		if sess == nil {
			if prefersHTML(c) {
				c.Redirect(http.StatusFound, adminPath)
			} else {
				util.Fail(c, http.StatusUnauthorized, "未登录")
			}
			c.Abort()
			return
		}

		c.Set(identityKey, sess.Identity())
		c.Set(sessionIDKey, sess.ID)
		c.Next()
	}
}

// prefersHTML 看 Accept 头里 HTML 是否排在 JSON 前面。
func prefersHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	html := strings.Index(accept, "text/html")
	if html < 0 {
		return false
	}
	j := strings.Index(accept, "application/json")
	return j < 0 || html < j
}
