package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/godesk-io/godesk-ce/internal/api"
	"github.com/godesk-io/godesk-ce/internal/cache"
	"github.com/godesk-io/godesk-ce/internal/config"
	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/middleware"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sweeper"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	config.MustLoad(configPath)
	cfg := config.Get()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Storage: database-backed when reachable, in-memory otherwise so the
	// service still serves rule and calendar admin in development.
	var (
		rules   repository.RuleRepository
		tickets repository.TicketStore
	)
	db, err := database.Connect(database.ConnectionConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		SearchPath:      cfg.Database.SearchPath,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Printf("Database unavailable, using in-memory stores: %v", err)
		rules = repository.NewMemoryRuleRepository()
		tickets = repository.NewMemoryTicketStore()
	} else {
		defer database.Close()
		rules = repository.NewSQLRuleRepository(db)
		tickets = repository.NewSQLTicketStore(db)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Redis unavailable, rule cache disabled: %v", err)
			redisClient = nil
		}
		cancel()
	}
	ruleCache := cache.NewRuleCache(rules, redisClient, cfg.SLA.RuleCacheTTL)

	var auth *middleware.AuthMiddleware
	if cfg.Auth.JWT.Secret != "" {
		auth = middleware.NewAuthMiddleware(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer)
	} else {
		log.Printf("JWT secret not configured, API is unauthenticated")
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := api.NewRouter(api.Dependencies{
		Rules:           rules,
		Tickets:         tickets,
		RuleCache:       ruleCache,
		Auth:            auth,
		DefaultLanguage: cfg.App.DefaultLanguage,
		MetricsPath:     metricsPath,
	})

	sweep := sweeper.New(tickets, cfg.SLA.SweepSchedule, nil)
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to start breach sweeper: %v", err)
	}
	defer sweep.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.App.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
