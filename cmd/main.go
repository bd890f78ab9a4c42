package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"plp-bookstore/configs"
	"plp-bookstore/internal/db"
	"plp-bookstore/internal/handlers"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/runner"
	"plp-bookstore/internal/utils"
)

func main() {
	cfg := configs.LoadConfig()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(cfg.LogLevel)

	app := newApp(cfg, logger)
	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("run failed")
	}
}

func newApp(cfg configs.Config, logger *logrus.Logger) *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "uri",
			Usage: "MongoDB connection string",
			Value: cfg.MongoURI,
		},
		&cli.BoolFlag{
			Name:  "require-match",
			Usage: "fail when the price update or deletion matches no document",
			Value: cfg.RequireMatch,
		},
		&cli.BoolFlag{
			Name:  "audit",
			Usage: "record mutations in the audit_logs collection",
			Value: cfg.AuditLog,
		},
	}

	apply := func(c *cli.Context) configs.Config {
		out := cfg
		out.MongoURI = c.String("uri")
		out.RequireMatch = c.Bool("require-match")
		out.AuditLog = c.Bool("audit")
		return out
	}

	return &cli.App{
		Name:  "bookstore",
		Usage: "run the plp_bookstore query walkthrough against MongoDB",
		Flags: flags,
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			return runner.Execute(ctx, apply(c), c.App.Writer, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "expose the bookstore queries over HTTP",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "listen port",
						Value: cfg.Port,
					},
				}, flags...),
				Action: func(c *cli.Context) error {
					serveCfg := apply(c)
					serveCfg.Port = c.String("port")
					return serve(c.Context, serveCfg, logger)
				},
			},
		},
	}
}

func serve(ctx context.Context, cfg configs.Config, logger *logrus.Logger) error {
	client, err := db.Connect(ctx, cfg.MongoURI, logger)
	if client != nil {
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.WithError(err).Warn("disconnect failed")
			}
		}()
	}
	if err != nil {
		return err
	}

	store := queries.NewBookStore(db.GetCollection(client, configs.DBName, configs.BooksCollection), cfg.RequireMatch)
	audit := &utils.Logger{PerformedBy: "http"}
	if cfg.AuditLog {
		audit.Collection = db.GetCollection(client, configs.DBName, configs.AuditLogsCollection)
	}

	authHandler := &handlers.AuthHandler{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
		Creds: handlers.Credentials{
			UserID:   cfg.AuthUserID,
			Username: cfg.AuthUsername,
			Password: cfg.AuthPassword,
		},
		Log: logger,
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, mutating routes will reject every request")
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(store, audit, authHandler, logger),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return listen(ctx, server, logger)
}

// listen serves until ctx is done, then shuts server down within 10 seconds.
func listen(ctx context.Context, server *http.Server, logger logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server shut down.")
	return nil
}
