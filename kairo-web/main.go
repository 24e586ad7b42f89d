package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"kairo/internal/redisconn"
	"kairo/kairo-web/app"
	"kairo/kairo-web/config"
	"kairo/kairo-web/session"
	"kairo/kairo-web/shell"
	"kairo/kairo-web/views"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.NewFlags("kairo-web")
	cfg, err := flags.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.WarnLevel)
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	store, err := openSession(cfg.Session)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sh := shell.New(os.Stdin, os.Stdout)
	appCfg := app.Config{
		APIBaseURL:  cfg.API,
		Session:     store,
		HTTPClient:  &http.Client{},
		Prompt:      sh,
		CallTimeout: cfg.Timeout,
		Hash:        cfg.Start,
		Logger:      logger,
	}
	if cfg.Views == config.ViewsEmbedded {
		appCfg.Views = views.FS
	}
	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	if _, err := a.Start(ctx); err != nil {
		logger.WithError(err).Warn("initial view")
	}
	return sh.Run(ctx, a)
}

func openSession(c config.SessionConfig) (session.Store, error) {
	switch c.Backend {
	case config.SessionMemory:
		return session.NewMemory(), nil
	case config.SessionRedis:
		return session.NewRedis(redisconn.New(c.Redis), c.Key), nil
	default:
		path := c.Path
		if path == "" {
			var err error
			if path, err = session.DefaultPath(); err != nil {
				return nil, fmt.Errorf("session file: %w", err)
			}
		}
		return session.NewFile(path), nil
	}
}
