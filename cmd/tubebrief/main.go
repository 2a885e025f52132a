package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openclaw/tubebrief/config"
	"github.com/openclaw/tubebrief/internal/assistant"
	srv "github.com/openclaw/tubebrief/internal/server"
)

func main() {
	var configPath string
	root := &cobra.Command{Use: "tubebrief"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	var chatUser string
	var chatText string
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Send one message to the assistant, or chat interactively from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			asst, err := srv.BuildAssistant(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if chatText != "" {
				return chatOnce(ctx, asst, chatUser, chatText)
			}
			return chatLoop(ctx, asst, chatUser)
		},
	}
	chat.Flags().StringVar(&chatUser, "user", "local", "user id for the session")
	chat.Flags().StringVar(&chatText, "text", "", "message text; omit for interactive mode")

	var migDir string
	var direction string
	var steps int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				dsn = cfg.Storage.Postgres.DSN()
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	root.AddCommand(serve, chat, migrate)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func chatOnce(ctx context.Context, asst *assistant.Assistant, user, text string) error {
	reply, err := asst.HandleMessage(ctx, user, text)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func chatLoop(ctx context.Context, asst *assistant.Assistant, user string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Println("tubebrief chat (ctrl-d to exit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		reply, err := asst.HandleMessage(ctx, user, text)
		if err != nil {
			return err
		}
		fmt.Println(reply)
	}
}
