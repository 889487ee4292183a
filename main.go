package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"filepanel/internal/audit"
	"filepanel/internal/config"
	"filepanel/internal/database"
	"filepanel/internal/router"
	"filepanel/internal/sandbox"
	"filepanel/internal/session"
	"filepanel/internal/userstore"
	"filepanel/internal/util"
)

func main() {
	// load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(cfg.Files.Root); err != nil {
		log.Fatalf("create root dir: %v", err)
	}
	if err := ensureDir(cfg.Data.Dir); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// 会话签名密钥：没配就临时生成一个，进程重启会话全部作废
	secret := cfg.Session.Secret
	if secret == "" {
		secret, err = util.RandomString(32)
		if err != nil {
			log.Fatalf("generate session secret: %v", err)
		}
		log.Printf("FP_SESSION_SECRET 未配置，已生成临时密钥，重启后所有会话失效")
	}
	key := util.SigningKey(secret)

	// 引导管理员：必须在开始接收流量之前完成
	users := userstore.New(cfg.UsersPath())
	created, err := users.Bootstrap(cfg.Bootstrap.Username, cfg.Bootstrap.Password)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}
	if created {
		log.Printf("user store was empty, bootstrapped admin user %q", cfg.Bootstrap.Username)
	}

	// init session database
	db, err := database.Init(cfg.SessionDBPath())
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	sessions := session.NewStore(db, cfg.SessionTTL())

	// 定期清理过期会话
	go func() {
		for range time.Tick(time.Hour) {
			if n, err := sessions.PurgeExpired(); err == nil && n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
		}
	}()

	sink := audit.New(cfg.AuditPath())
	resolver := sandbox.New(cfg.Files.Root)

	// setup router
	r := router.Setup(router.Deps{
		Cfg:      cfg,
		Users:    users,
		Sessions: sessions,
		Audit:    sink,
		Resolver: resolver,
		Key:      key,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s, sandbox root %s", addr, cfg.Files.Root)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
