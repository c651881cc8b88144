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

	"mapchat/internal/handler"
	"mapchat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and sandboxed map documents to a browser page",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, handler.MapPath, nil)
			if err != nil {
				return err
			}
			defer a.close()

			if port != 0 {
				a.cfg.Server.Port = port
			}
			return serve(a)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")

	return cmd
}

func serve(a *app) error {
	gin.SetMode(gin.ReleaseMode)

	router := handler.NewRouter(a.cfg, handler.NewSessionHandler(a.session))

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		MaxHeaderBytes: a.cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on port %d", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
