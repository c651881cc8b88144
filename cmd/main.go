package main

import (
	"fmt"
	"os"

	"mapchat/internal/config"
	"mapchat/internal/mapview"
	"mapchat/internal/service"
	"mapchat/internal/storage"
	"mapchat/internal/transport"
	"mapchat/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "mapchat",
		Short:        "Client for a map-chat session: attach files, talk, watch the map",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (yaml)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newChatCmd(&configPath))

	return root
}

// app bundles what both commands need.
type app struct {
	cfg     *config.Config
	store   storage.BlobStore
	session *service.ChatSession
}

// setup loads the config, lets adjust override it, and builds the session.
func setup(configPath, mapURLPrefix string, adjust func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.New(cfg.Storage.Type, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init map storage: %w", err)
	}

	tr, err := transport.New(cfg.Backend)
	if err != nil {
		store.Close()
		return nil, err
	}

	viewer := mapview.NewViewer(store, mapURLPrefix)
	chatSession := service.NewChatSession(tr, viewer, service.NewTextDecoder(cfg.Session.MaxFileBytes), cfg.Session.Slots)

	logger.Infof("backend %s (protocol %s), %d attachment slots, %s map storage",
		cfg.Backend.BaseURL, cfg.Backend.Protocol, cfg.Session.Slots, cfg.Storage.Type)

	return &app{cfg: cfg, store: store, session: chatSession}, nil
}

func (a *app) close() {
	a.session.Close()
	if err := a.store.Close(); err != nil {
		logger.Errorf("close map storage: %v", err)
	}
}
