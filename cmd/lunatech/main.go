// Command lunatech serves the Lunatech site and manages its admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	lunatech "github.com/Malmeu/LunatechWeb-main"
	"github.com/Malmeu/LunatechWeb-main/views"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "lunatech",
		Short:         "Lunatech site and blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (yaml, json, toml or env)")

	cmd.AddCommand(serveCmd(&configPath), userCmd(&configPath), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lunatech %s\n", lunatech.Version)
		},
	})
	return cmd
}

func loadConfig(path string) (lunatech.SiteConfig, error) {
	cfg, err := lunatech.LoadConfig(viper.New(), path)
	if err != nil {
		return lunatech.SiteConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serveCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			log := lunatech.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := lunatech.New(cfg, views.Funcs(), log)
			defer app.Close()
			if err := app.Start(ctx); err != nil {
				log.Error().Err(err).Msg("server stopped")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ADDR)")
	return cmd
}

func userCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin accounts",
	}

	var email, password, name, avatar string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := lunatech.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			store, err := lunatech.NewStore(cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer store.Close()

			u, err := lunatech.AddUser(context.Background(), store, email, password, lunatech.Author{FullName: name, AvatarURL: avatar})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "Account e-mail")
	add.Flags().StringVar(&password, "password", "", "Account password (min 8 characters)")
	add.Flags().StringVar(&name, "name", "", "Display name shown on posts")
	add.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}
