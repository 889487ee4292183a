package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"filepanel/internal/config"
)

func TestLoginSuccess(t *testing.T) {
	s := newTestServer(t, nil)

	ck := s.login(t, "admin", "admin123")
	if !ck.HttpOnly {
		t.Error("会话 cookie 应为 HttpOnly")
	}

	w := s.do("GET", "/api/session", "", ck)
	m := decode(t, w)
	user, ok := m["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("应返回身份信息: %v", m)
	}
	if user["username"] != "admin" || user["role"] != "admin" {
		t.Errorf("身份信息错误: %v", user)
	}
}

func TestLoginMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{`{}`, `{"username":"admin"}`, `{"password":"x"}`} {
		w := s.do("POST", "/api/login", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("请求体 %s 应返回 400，实际 %d", body, w.Code)
		}
	}
}

// 用户不存在和密码错误必须返回完全相同的应答（防用户名枚举）
func TestLoginEnumerationResistance(t *testing.T) {
	s := newTestServer(t, nil)

	wrongPass := s.do("POST", "/api/login", `{"username":"admin","password":"wrong"}`, nil)
	unknownUser := s.do("POST", "/api/login", `{"username":"ghost","password":"wrong"}`, nil)

	if wrongPass.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("都应返回 401，实际 %d / %d", wrongPass.Code, unknownUser.Code)
	}
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Errorf("应答体应完全一致: %q vs %q", wrongPass.Body.String(), unknownUser.Body.String())
	}
}

// 窗口内第 N+1 次尝试必须 429，凭据对错都一样
func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.LoginLimit.Attempts = 3
	})

	for i := 0; i < 3; i++ {
		w := s.do("POST", "/api/login", `{"username":"admin","password":"wrong"}`, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("第 %d 次应为 401，实际 %d", i+1, w.Code)
		}
	}

	// 第 4 次即使密码正确也要被拦
	w := s.do("POST", "/api/login", `{"username":"admin","password":"admin123"}`, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("超限后应返回 429，实际 %d", w.Code)
	}
}

func TestSessionWithoutLogin(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do("GET", "/api/session", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("会话探测不应要求登录: %d", w.Code)
	}
	m := decode(t, w)
	if m["user"] != nil {
		t.Errorf("未登录时 user 应为 null: %v", m)
	}
}

func TestProtectedRouteWithoutSession(t *testing.T) {
	s := newTestServer(t, nil)

	// API 风格请求：401，不跳转
	w := s.do("GET", "/api/list", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}

	// 浏览器风格请求：重定向到登录页
	req := httptest.NewRequest("GET", "/api/list", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Errorf("期望 302，实际 %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Errorf("应跳转到 /admin，实际 %q", loc)
	}
}

func TestLogoutKillsSession(t *testing.T) {
	s := newTestServer(t, nil)
	ck := s.login(t, "admin", "admin123")

	w := s.do("POST", "/api/logout", "", ck)
	if w.Code != http.StatusOK {
		t.Fatalf("登出失败: %d %s", w.Code, w.Body.String())
	}

	// 旧 cookie 不应再通过任何受保护接口（服务端已销毁，不只是清 cookie）
	w = s.do("GET", "/api/list", "", ck)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("登出后旧 cookie 应失效，实际 %d", w.Code)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do("POST", "/api/logout", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t, nil)
	ck := s.login(t, "admin", "admin123")

	// 当前密码错误
	w := s.do("POST", "/api/change-password", `{"currentPassword":"bad","newPassword":"NewPass456"}`, ck)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("当前密码错误应返回 401，实际 %d", w.Code)
	}

	// 缺字段
	w = s.do("POST", "/api/change-password", `{"newPassword":"NewPass456"}`, ck)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺字段应返回 400，实际 %d", w.Code)
	}

	// 正常改密
	w = s.do("POST", "/api/change-password", `{"currentPassword":"admin123","newPassword":"NewPass456"}`, ck)
	if w.Code != http.StatusOK {
		t.Fatalf("改密失败: %d %s", w.Code, w.Body.String())
	}

	// 旧密码不能再登录，新密码可以
	w = s.do("POST", "/api/login", `{"username":"admin","password":"admin123"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("旧密码应失效，实际 %d", w.Code)
	}
	s.login(t, "admin", "NewPass456")
}
