package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/glauncher/glauncher-api/api/rest"
	"github.com/glauncher/glauncher-api/api/sse"
	apiws "github.com/glauncher/glauncher-api/api/ws"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/achievements"
	"github.com/glauncher/glauncher-api/launcher/chat"
	"github.com/glauncher/glauncher-api/launcher/clock"
	"github.com/glauncher/glauncher-api/launcher/friends"
	"github.com/glauncher/glauncher-api/launcher/gate"
	"github.com/glauncher/glauncher-api/launcher/gchat"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/launcher/shop"
	"github.com/glauncher/glauncher-api/launcher/wall"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/model"
	"github.com/glauncher/glauncher-api/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret is not set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		logger.Fatal("pubsub", zap.Error(err))
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Launcher services ----
	clk := clock.System
	pub := notify.NewPublisher(pubsub, logger)
	presence := notify.NewPresence(c, notify.DefaultPresenceTTL)
	dir := account.NewDirectory(db, pub, logger)
	evaluator := gate.NewEvaluator(db)
	friendStore := friends.NewStore(db)
	friendSvc := friends.NewService(friendStore, dir, presence, pub, logger)
	chatSvc := chat.NewService(db, evaluator, pub, cfg.Launcher, logger)
	gchatSvc := gchat.NewService(db, friendStore, dir, pub, cfg.Launcher, logger)
	wallSvc := wall.NewService(db, evaluator, pub, cfg.Launcher, logger)
	achievementSvc := achievements.NewService(db, pub, logger)
	shopSvc := shop.NewService(db, evaluator, pub, cfg.Launcher, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if keep := cfg.Launcher.ChatRetention; keep > 0 {
		sweep := cfg.Launcher.ChatRetentionSweep
		if sweep <= 0 {
			sweep = config.LauncherConfig{}.Defaults().ChatRetentionSweep
		}
		sched.AddTicker(audit.ActionChatPrune, sweep, func(ctx context.Context) error {
			n, err := chatSvc.PruneOlderThan(ctx, clk.Now().Add(-keep))
			if err == nil && n > 0 {
				auditSvc.Log(audit.Entry{Action: audit.ActionChatPrune, Response: map[string]int64{"deleted": n}})
			}
			return err
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger), mw.Metrics())
	if cfg.Security.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst, mw.ByClientIP))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", mw.IPWhitelist(cfg.Security.MetricsAllowIPs), gin.WrapH(promhttp.Handler()))

	apirest.Register(r, apirest.Handlers{
		Auth:         apirest.NewAuthHandler(dir, c, cfg.Security, clk, logger),
		User:         apirest.NewUserHandler(dir, clk, logger),
		Social:       apirest.NewSocialHandler(friendSvc, logger),
		Chat:         apirest.NewChatHandler(chatSvc, auditSvc, clk, logger),
		GChat:        apirest.NewGChatHandler(gchatSvc, clk, logger),
		Wall:         apirest.NewWallHandler(wallSvc, auditSvc, clk, logger),
		Achievements: apirest.NewAchievementHandler(achievementSvc, auditSvc, clk, logger),
		Shop:         apirest.NewShopHandler(shopSvc, auditSvc, clk, logger),
		Admin:        apirest.NewAdminHandler(dir, sched, auditSvc, clk, logger),
	}, dir, c, cfg.Security)

	// ---- Event streams ----
	wsH := apiws.NewHandler(pubsub, presence, pub, cfg.Security, apiws.NewRouter(logger), logger)
	r.GET("/ws", mw.Auth(cfg.Security, c), wsH.ServeWS)
	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/sse", mw.Auth(cfg.Security, c), sseH.ServeSSE)

	// ---- Launcher web frontend (optional) ----
	if cfg.Server.StaticDir != "" {
		r.NoRoute(func(ctx *gin.Context) {
			path := cfg.Server.StaticDir + ctx.Request.URL.Path
			if st, err := os.Stat(path); err == nil && !st.IsDir() {
				ctx.File(path)
				return
			}
			ctx.File(cfg.Server.StaticDir + "/index.html")
		})
		logger.Info("Serving launcher frontend", zap.String("dir", cfg.Server.StaticDir))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
