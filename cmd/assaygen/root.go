package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "assaygen",
		Short:   "Generate targeted MS assays with unique ion signatures",
		Long:    "assaygen annotates, filters and selects transitions for targeted mass-spectrometry assays (MRM/SWATH), including UIS transitions that discriminate modification-localization variants, with sequence-shuffled decoys.",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newGenerateCmd(&verbose))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home directory, run with defaults
	}
	viper.SetConfigName(".assaygen")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.SetEnvPrefix("assaygen")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
