// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the policy-unify CLI.
// See docs/ARCHITECTURE.md § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/policy-unify/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the policy-unify CLI.
var rootCmd = &cobra.Command{
	Use:   "policy-unify",
	Short: "Build a unified policy research dataset from three catalogs",
	Long: `policy-unify builds a deduplicated dataset of research papers about policy
topics from three bibliographic catalogs: OpenAlex, Semantic Scholar, and
NBER working papers.

Each pipeline stage is a subcommand: fetch pulls raw records per catalog,
unify matches and merges them into one record per paper, and report renders
coverage analysis of how the catalogs overlap and diverge.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./policy-unify.yaml or ~/.config/policy-unify/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "base directory for the record store (contains index/, unified/)")
	rootCmd.PersistentFlags().String("policies", "policies.yaml", "policy definitions file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("policy-unify")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "policy-unify"))
		}
	}

	viper.SetEnvPrefix("POLICY_UNIFY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
