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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/urlpinger/internal/config"
	"github.com/hamed0406/urlpinger/internal/httpapi"
	"github.com/hamed0406/urlpinger/internal/logging"
	"github.com/hamed0406/urlpinger/internal/probe"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("probe defaults: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	api := httpapi.NewServer(logger, probe.NewProber(logger), cfg.Defaults)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.APIKeys, cfg.AllowedOrigins, cfg.RatePerMin, cfg.RateBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, groupCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-groupCtx.Done()
		// in-flight probes are bounded by attempts x timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(probe.MaxAttempts*probe.MaxTimeoutMS)*time.Millisecond)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil {
		logger.Error("api_stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("api_stopped")
}
