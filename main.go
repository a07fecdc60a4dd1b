package main

import (
	"fmt"
	"os"

	"qwen-chat/config"
	"qwen-chat/logging"
	"qwen-chat/services"
	"qwen-chat/workflows"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	withCaller bool
)

var rootCmd = &cobra.Command{
	Use:          "qwen-chat",
	Short:        "Chat with a hosted Qwen model over HTTP or in the terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&withCaller, "with-caller", false, "add caller information to logs")

	rootCmd.AddCommand(newServeCmd(), newChatCmd())
}

// app holds everything the commands share
type app struct {
	cfg   *config.Config
	blobs *services.BlobStore
	qwen  *services.QwenService
	chat  *workflows.Chat
}

// setup loads config, initializes logging and builds the chat stack
func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := logging.Init(level, withCaller); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	blobs := services.NewBlobStore()
	qwen, err := services.NewQwenService(services.Config{
		Mode:           cfg.Qwen.Backend,
		BaseURL:        cfg.Qwen.BaseURL,
		Model:          cfg.Qwen.Model,
		Timeout:        cfg.Qwen.Timeout,
		SimulatedDelay: cfg.Qwen.SimulatedDelay,
	}, blobs)
	if err != nil {
		return nil, err
	}

	chat := workflows.NewChat(qwen, workflows.WithOnError(func(err error) {
		log.Debug().Err(err).Msg("chat error reported")
	}))

	log.Info().
		Str("backend", qwen.Mode()).
		Str("base_url", cfg.Qwen.BaseURL).
		Dur("timeout", cfg.Qwen.Timeout).
		Msg("qwen service initialized")

	return &app{cfg: cfg, blobs: blobs, qwen: qwen, chat: chat}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
