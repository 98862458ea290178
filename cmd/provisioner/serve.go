package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sshcollectorpro/consoleprov/api/handler"
	"github.com/sshcollectorpro/consoleprov/api/router"
	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/database"
	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only run history API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func (a *app) serve(ctx context.Context) error {
	if a.repo == nil {
		return fmt.Errorf("run store unavailable, see earlier warnings")
	}
	r := router.SetupRouter(handler.NewRunHandler(a.repo), handler.NewSystemHandler(database.Health, a.opener))
	srv := &http.Server{
		Addr:           a.cfg.GetServerAddr(),
		Handler:        r,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		path := resolveConfigPath(configPath)
		if path == "" {
			logger.Info("No config file to watch; hot reload disabled")
			return nil
		}
		return watchConfig(gctx, path, 300*time.Millisecond, func() { a.reloadConfig(path) })
	})
	return g.Wait()
}

// reloadConfig 原地覆盖配置并刷新日志
func (a *app) reloadConfig(path string) {
	newCfg, err := config.Load(path)
	if err != nil {
		logger.Warnf("Config reload failed: %v", err)
		return
	}
	newCfg.Serial.Simulate = a.cfg.Serial.Simulate
	*a.cfg = *newCfg
	if err := logger.Init(logConfig(a.cfg)); err != nil {
		logger.Warnf("Logger reload failed: %v", err)
		return
	}
	logger.Info("Config reloaded")
}
