package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"filepanel/internal/audit"
	"filepanel/internal/config"
	"filepanel/internal/middleware"
	"filepanel/internal/session"
	"filepanel/internal/userstore"
	"filepanel/internal/util"
)

// AuthHandler 负责登录/登出/改密相关接口
type AuthHandler struct {
	Users    *userstore.Store
	Sessions *session.Store
	Audit    *audit.Sink
	Cfg      *config.Config
	Key      []byte
}

// NewAuthHandler 构造函数
func NewAuthHandler(users *userstore.Store, sessions *session.Store, sink *audit.Sink, cfg *config.Config, key []byte) *AuthHandler {
	return &AuthHandler{
		Users:    users,
		Sessions: sessions,
		Audit:    sink,
		Cfg:      cfg,
		Key:      key,
	}
}

// ---------- 登录 ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验用户名密码，成功则创建会话并种 cookie。
// 用户不存在和密码错误返回完全相同的应答，不给枚举用户名留缝，
// 失败也不写审计日志。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少用户名或密码")
		return
	}

	user, err := h.Users.Find(req.Username)
	if err != nil {
		util.Fail(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.Fail(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	sess, err := h.Sessions.Create(user.Username, user.Role)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "创建会话失败")
		return
	}

	token, err := util.GenerateToken(h.Key, sess.ID, h.Cfg.SessionTTL())
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "生成 token 失败")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cfg.Session.Cookie, token, int(h.Cfg.SessionTTL().Seconds()), "/", "", false, true)

	_ = h.Audit.Log(user.Username, "login", "-")

	util.OK(c, util.Response{"ok": true})
}

// ---------- 登出 ----------

// Logout 服务端销毁会话并清掉 cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		util.Fail(c, http.StatusUnauthorized, "未登录")
		return
	}

	if sid := middleware.SessionIDFrom(c); sid != "" {
		if err := h.Sessions.Revoke(sid); err != nil {
			util.Fail(c, http.StatusInternalServerError, "登出失败")
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cfg.Session.Cookie, "", -1, "/", "", false, true)

	_ = h.Audit.Log(id.Username, "logout", "-")

	util.OK(c, util.Response{"ok": true})
}

// ---------- 会话探测 ----------

// Session 返回当前会话绑定的身份，未登录时 user 为 null。不需要鉴权。
func (h *AuthHandler) Session(c *gin.Context) {
	sess := middleware.Lookup(c, h.Cfg.Session.Cookie, h.Key, h.Sessions)
	if sess == nil {
		util.OK(c, util.Response{"user": nil})
		return
	}
	util.OK(c, util.Response{"user": sess.Identity()})
}

// ---------- 修改密码 ----------

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword 修改当前用户密码，要求重新证明当前密码。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		util.Fail(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	user, err := h.Users.Find(id.Username)
	if err != nil {
		// 会话还在但用户记录没了
		util.Fail(c, http.StatusNotFound, "用户不存在")
		return
	}

	// 校验当前密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		util.Fail(c, http.StatusUnauthorized, "当前密码错误")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "密码加密失败")
		return
	}

	if err := h.Users.UpdatePassword(user.Username, string(hash)); err != nil {
		util.Fail(c, http.StatusInternalServerError, "更新密码失败")
		return
	}

	_ = h.Audit.Log(user.Username, "change_password", "-")

	util.OK(c, util.Response{"ok": true})
}
