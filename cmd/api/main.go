package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wichananm65/persons-service/internal/config"
	"github.com/wichananm65/persons-service/internal/interface/http/router"
	"github.com/wichananm65/persons-service/internal/logger"
	"github.com/wichananm65/persons-service/internal/person"
)

// main wires the in-memory store and starts the HTTP server. Data is lost on exit.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	log := zl.Sugar()

	personRepo := person.NewInMemoryRepository(nil)
	personService := person.NewService(personRepo, log)
	personHandler := person.NewHandler(personService, log)

	app := router.New(router.Options{
		StaticDir:        cfg.StaticDir,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	}, log, personHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := router.Serve(ctx, app, cfg.Addr, cfg.ShutdownTimeout, log); err != nil {
		log.Fatalw("server stopped", "err", err)
	}
}
