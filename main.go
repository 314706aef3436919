package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/logging"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/observability"
	"github.com/danielhkuo/campus-ballot/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("Error parsing flags: " + err.Error() + "\n")
		return 1
	}

	logs, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("Error initializing logger: " + err.Error() + "\n")
		return 1
	}
	defer logs.Closer()
	restore := zap.ReplaceGlobals(logs.Base)
	defer restore()
	log := logs.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", zap.Error(err))
		return 1
	}
	defer dbConn.Close()

	applied, err := db.Migrate(ctx, dbConn, cfg.DatabaseType)
	if err != nil {
		log.Error("migration failed", zap.Error(err))
		return 1
	}
	log.Info("database schema ready", zap.String("type", cfg.DatabaseType), zap.Int("applied", applied))

	mux := router.NewRouter(dbConn, cfg)

	server := http.Server{
		Handler: middleware.CORS(middleware.Recover(mux)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env), zap.String("version", version))
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server closed", zap.Error(err))
		return 1
	}
	log.Info("server closed")
	return 0
}
