package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"songsyncgo/internal/config"
	"songsyncgo/internal/database/db_client"
	"songsyncgo/internal/http/http_server"
	"songsyncgo/internal/http/mediahandler"
	"songsyncgo/internal/http/roomhandler"
	"songsyncgo/internal/media"
	"songsyncgo/internal/presence"
	"songsyncgo/internal/redis/redis_client"
	"songsyncgo/internal/services/roomsync"
	"songsyncgo/internal/ws"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer func() { _ = Log.Sync() }()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var observer roomsync.RoomObserver
	var directory roomhandler.Directory
	var catalog media.Catalog

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if Log, err = newLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		zap.L().Fatal("Failed to build logger", zap.Error(err))
	}
	zap.ReplaceGlobals(Log)
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Optional Redis presence mirror
	var mirror *presence.Mirror
	if cfg.RedisEnabled {
		redisClient, err = redis_client.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDb)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()

		mirror = presence.NewMirror(redisClient, instanceID(cfg.InstanceID), cfg.PresenceResyncInterval, cfg.PresenceTTL)
		observer, directory = mirror, mirror
		Log.Debug("Redis client created successfully")
	}

	// 4. Optional media catalog
	if cfg.CatalogDriver != config.CatalogNone {
		db, err := openCatalogDb(cfg)
		if err != nil {
			Log.Fatal("catalog-open", zap.Error(err))
		}
		defer db.Close()

		driver := db_client.DriverSqlite
		if cfg.CatalogDriver == config.CatalogPostgres {
			driver = db_client.DriverPostgres
		}
		sqlCatalog, err := media.NewSQLCatalog(db, driver)
		if err != nil {
			Log.Fatal("catalog-init", zap.Error(err))
		}
		if err := sqlCatalog.EnsureSchema(ctx); err != nil {
			Log.Fatal("catalog-schema", zap.Error(err))
		}
		catalog = sqlCatalog
	}

	// 5. Media library and yt-dlp
	library, err := media.NewLibrary(cfg.UploadDir, cfg.DownloadDir, cfg.MaxUploadBytes)
	if err != nil {
		Log.Fatal("media-library", zap.Error(err))
	}
	fetcher := media.NewYtDlp(cfg.YtDlpPath, cfg.FfmpegPath, cfg.DownloadDir, cfg.SearchLimit)

	// 6. Room synchronization core
	roomService := roomsync.NewRoomService(observer)
	if mirror != nil {
		go mirror.Run(ctx, roomService)
	}

	// 7. Initialize the WS server
	wsSrv := ws.NewWsServer(roomService, ws.Options{
		SendQueue:      cfg.WsSendQueue,
		ReadLimit:      cfg.WsReadLimit,
		WriteWait:      cfg.WsWriteWait,
		PongWait:       cfg.WsPongWait,
		AllowedOrigins: cfg.WsAllowedOrigins,
	})

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(cfg.HttpServerPort, http_server.Deps{
		WsServer:       wsSrv,
		Rooms:          roomhandler.New(roomService, directory),
		Media:          mediahandler.New(library, fetcher, catalog),
		UploadDir:      cfg.UploadDir,
		DownloadDir:    cfg.DownloadDir,
		AllowedOrigins: cfg.WsAllowedOrigins,
	})
	go func() {
		if err := httpServer.Start(); err != nil {
			Log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	Log.Info("shutting down")
	_ = httpServer.Dispose()
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func openCatalogDb(cfg *config.Config) (*sql.DB, error) {
	if cfg.CatalogDriver == config.CatalogPostgres {
		return db_client.Open(db_client.DriverPostgres, cfg.PostgresDSN())
	}
	return db_client.Open(db_client.DriverSqlite, cfg.SqlitePath)
}

// instanceID names this process's presence hash.
func instanceID(configured string) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "songsync"
	}
	return host + "-" + uuid.NewString()[:8]
}
