// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-harvest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-harvest/internal/config"
	"github.com/pdiddy/pubmed-harvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pubmed-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-harvest",
	Short: "Fetch PubMed article metadata and PMC full text to local storage",
	Long: `pubmed-harvest searches PubMed through the NCBI E-utilities API, then
fetches each article's metadata, XML record and, when available, the PubMed
Central PDF, and stores them under a fixed directory layout.

Settings come from environment variables (optionally loaded from .env), a
pubmed-harvest.yaml config file, and key files in .secrets/. PUBMED_EMAIL and
PUBMED_TOOL are required.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, nil)
		if err != nil {
			return err
		}
		if applied := secrets.Apply(viper.GetViper(), s); len(applied) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", applied)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubmed-harvest.yaml or ~/.config/pubmed-harvest/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "file of KEY=VALUE settings loaded into the environment")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-file", "", "write JSON logs to a rotated file (overrides LOG_FILE)")

	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFile, rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-harvest"))
		}
	}

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
