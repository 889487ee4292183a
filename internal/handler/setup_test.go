package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"filepanel/internal/audit"
	"filepanel/internal/config"
	"filepanel/internal/database"
	"filepanel/internal/router"
	"filepanel/internal/sandbox"
	"filepanel/internal/session"
	"filepanel/internal/userstore"
	"filepanel/internal/util"
)

// testServer 把整条链路搭起来：临时沙箱根 + 临时数据目录 + 真路由。
type testServer struct {
	engine *gin.Engine
	cfg    *config.Config
	root   string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:     config.ServerConfig{},
		Admin:      config.AdminConfig{Prefix: "admin"},
		Files:      config.FilesConfig{Root: t.TempDir(), MaxTextBytes: 1024},
		Data:       config.DataConfig{Dir: t.TempDir()},
		Session:    config.SessionConfig{Secret: "test-secret", TTLHours: 12, Cookie: "fp_session"},
		Bootstrap:  config.BootstrapConfig{Username: "admin", Password: "admin123"},
		LoginLimit: config.LoginLimitConfig{Attempts: 20, WindowMinutes: 10},
	}
	if mutate != nil {
		mutate(cfg)
	}

	users := userstore.New(cfg.UsersPath())
	if _, err := users.Bootstrap(cfg.Bootstrap.Username, cfg.Bootstrap.Password); err != nil {
		t.Fatalf("引导管理员失败: %v", err)
	}

	db, err := database.Init(cfg.SessionDBPath())
	if err != nil {
		t.Fatalf("初始化数据库失败: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	engine := router.Setup(router.Deps{
		Cfg:      cfg,
		Users:    users,
		Sessions: session.NewStore(db, cfg.SessionTTL()),
		Audit:    audit.New(cfg.AuditPath()),
		Resolver: sandbox.New(cfg.Files.Root),
		Key:      util.SigningKey(cfg.Session.Secret),
	})

	return &testServer{engine: engine, cfg: cfg, root: cfg.Files.Root}
}

// do 发一个 API 风格的请求（Accept: application/json）。
func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:12345"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// login 用给定凭据登录，成功时返回会话 cookie。
func (s *testServer) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	w := s.do("POST", "/api/login", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("登录失败: %d %s", w.Code, w.Body.String())
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == s.cfg.Session.Cookie {
			return ck
		}
	}
	t.Fatal("登录应答没有会话 cookie")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("应答不是 JSON: %v: %s", err, w.Body.String())
	}
	return m
}
