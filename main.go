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

	"github.com/CUknot/tasksphere_backend/blob"
	"github.com/CUknot/tasksphere_backend/chat"
	"github.com/CUknot/tasksphere_backend/config"
	"github.com/CUknot/tasksphere_backend/controllers"
	"github.com/CUknot/tasksphere_backend/database"
	"github.com/CUknot/tasksphere_backend/docs"
	"github.com/CUknot/tasksphere_backend/logger"
	"github.com/CUknot/tasksphere_backend/middleware"
	"github.com/CUknot/tasksphere_backend/storage"
	"github.com/CUknot/tasksphere_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// @title           TaskSphere Chat API
// @version         1.0
// @description     Group chat and document sharing for TaskSphere projects
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	// Upload staging
	temp, err := storage.NewTempDir(cfg.UploadTempDir, log)
	if err != nil {
		return err
	}
	if err := temp.StartSweeper(cfg.UploadSweepInterval, cfg.UploadMaxAge); err != nil {
		return err
	}
	defer temp.Shutdown()

	blobs, err := blob.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("blob storage: %w", err)
	}

	// Rooms
	hub := websocket.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	var registry websocket.Registry = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		shared, err := websocket.NewRedisRegistry(ctx, hub, rdb, cfg.RedisChannelPrefix, log)
		if err != nil {
			return err
		}
		defer shared.Close()
		registry = shared
		log.Info("rooms shared through redis", zap.String("addr", cfg.RedisAddr))
	}

	store := database.NewGroupStore(db)
	svc := chat.NewService(store, blobs, websocket.NewBroadcaster(registry), log)

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	// Set up router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes := controllers.Routes{
		Groups:    controllers.NewGroupController(store, svc, temp, cfg.UploadMaxBytes, log),
		Users:     controllers.NewUserController(store, log),
		DB:        sqlDB,
		WebSocket: websocket.NewHandler(registry, svc, log).HandleConnection,
	}
	if cfg.AuthJWTSecret != "" {
		routes.Auth = middleware.BearerAuth(cfg.AuthJWTSecret)
	}
	routes.Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running",
			zap.String("port", cfg.Port),
			zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
