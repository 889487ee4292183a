package router

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"filepanel/internal/audit"
	"filepanel/internal/config"
	"filepanel/internal/handler"
	"filepanel/internal/middleware"
	"filepanel/internal/sandbox"
	"filepanel/internal/session"
	"filepanel/internal/userstore"
)

// Deps 是路由需要的全部组件，由 main 组装好传进来。
type Deps struct {
	Cfg      *config.Config
	Users    *userstore.Store
	Sessions *session.Store
	Audit    *audit.Sink
	Resolver *sandbox.Resolver
	Key      []byte
}

// Setup configures the Gin engine, pages and API routes.
func Setup(d Deps) *gin.Engine {
	if d.Cfg.Server.Mode != "" {
		gin.SetMode(d.Cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	adminPath := d.Cfg.AdminPath()

	// 静态资源和页面
	r.Static("/static", "./web/static")
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join("web", "index.html"))
	})

	// 管理页：有会话给应用页，没有给登录页
	r.GET(adminPath, func(c *gin.Context) {
		if middleware.Lookup(c, d.Cfg.Session.Cookie, d.Key, d.Sessions) != nil {
			c.File(filepath.Join("web", "app.html"))
			return
		}
		c.File(filepath.Join("web", "login.html"))
	})
	if adminPath != "/admin" {
		r.GET("/admin", func(c *gin.Context) {
			c.Redirect(http.StatusFound, adminPath)
		})
	}
	r.GET("/login", func(c *gin.Context) {
		c.Redirect(http.StatusFound, adminPath)
	})

	// ====== API ======
	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(d.Users, d.Sessions, d.Audit, d.Cfg, d.Key)

	// 登录/会话探测（不需要鉴权）
	limiter := middleware.NewLoginLimiter(d.Cfg.LoginLimit.Attempts, d.Cfg.LoginWindow())
	api.POST("/login", limiter.Middleware(), authHandler.Login)
	api.GET("/session", authHandler.Session)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.Cfg.Session.Cookie, d.Key, d.Sessions, adminPath))

	protected.POST("/logout", authHandler.Logout)
	protected.POST("/change-password", authHandler.ChangePassword)

	fileHandler := handler.NewFileHandler(d.Resolver, d.Audit, d.Cfg.Files.MaxTextBytes)
	protected.GET("/list", fileHandler.List)
	protected.POST("/create-folder", fileHandler.CreateFolder)
	protected.POST("/create-file", fileHandler.CreateFile)
	protected.POST("/rename", fileHandler.Rename)
	protected.POST("/delete", fileHandler.Delete)
	protected.GET("/file", fileHandler.GetFile)
	protected.POST("/file", fileHandler.SaveFile)

	logHandler := handler.NewLogHandler(d.Audit)
	protected.GET("/audit", logHandler.ListAudit)
	protected.GET("/audit/export.csv", logHandler.ExportCSV)
	protected.GET("/audit/export.xlsx", logHandler.ExportXLSX)

	return r
}
