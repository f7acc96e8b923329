package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxxuzi/fxgate/internal/auth"
	"github.com/rxxuzi/fxgate/internal/config"
	"github.com/rxxuzi/fxgate/internal/content"
	"github.com/rxxuzi/fxgate/internal/drive/r2"
	"github.com/rxxuzi/fxgate/internal/logger"
	"github.com/rxxuzi/fxgate/internal/server"
	"github.com/rxxuzi/fxgate/internal/version"
)

type rootFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func main() {
	root := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "fxgate",
		Short: "Object storage gateway for the fx portfolio drive",
	}

	rootCmd.PersistentFlags().StringVar(&root.ConfigPath, "config", "", "Path to config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&root.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&root.LogFormat, "log-format", "", "Log format (json, console)")

	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd(root *rootFlags) *cobra.Command {
	var addr string
	var secureCookies bool

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}
			applyOverrides(cfg, root)
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.New(&logger.Config{
				Level:  cfg.Server.LogLevel,
				Format: cfg.Server.LogFormat,
				Output: os.Stdout,
			})

			store, err := r2.New(&cfg.Store, log)
			if err != nil {
				return err
			}

			authm := auth.NewManager(cfg.Auth.Secret, cfg.Auth.AdminEmail, cfg.Auth.AdminPass, cfg.Auth.TokenTTL)
			library := content.NewLibrary(cfg.Content.Dir)

			srv := server.New(store, authm, library, log)
			srv.SecureCookies = secureCookies

			httpSrv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				log.Infof("listening on %s", cfg.Server.Addr)
				errc <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	serve.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	serve.Flags().BoolVar(&secureCookies, "secure-cookies", true, "Set the Secure attribute on session cookies")
	return serve
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fxgate %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func applyOverrides(cfg *config.Config, root *rootFlags) {
	if root.LogLevel != "" {
		cfg.Server.LogLevel = root.LogLevel
	}
	if root.LogFormat != "" {
		cfg.Server.LogFormat = root.LogFormat
	}
}
