package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wichananm65/persons-service/internal/config"
	"github.com/wichananm65/persons-service/internal/infrastructure/database/postgres"
	"github.com/wichananm65/persons-service/internal/interface/http/router"
	"github.com/wichananm65/persons-service/internal/logger"
	"github.com/wichananm65/persons-service/internal/person"
)

// main runs the persons API against PostgreSQL.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	log := zl.Sugar()

	db := mustOpenDB(cfg, log)
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalw("schema setup failed", "err", err)
	}

	personService := person.NewService(person.NewPostgresRepository(db), log)
	personHandler := person.NewHandler(personService, log)

	app := router.New(router.Options{
		StaticDir:        cfg.StaticDir,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	}, log, personHandler)

	if err := router.Serve(ctx, app, cfg.Addr, cfg.ShutdownTimeout, log); err != nil {
		log.Fatalw("server stopped", "err", err)
	}
}

func mustOpenDB(cfg config.Config, log *zap.SugaredLogger) *sqlx.DB {
	db, err := postgres.Connect(postgres.Config{
		DSN:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		log.Fatalw("database connection failed", "err", err)
	}
	return db
}
