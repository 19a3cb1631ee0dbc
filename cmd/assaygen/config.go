package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the keys the generate command reads from the config file,
// with a validator for each value.
var configKeys = map[string]func(value string) error{
	"generate.min-transitions": validateTransitionCount,
	"generate.max-transitions": validateTransitionCount,
	"generate.swath-windows": func(value string) error {
		_, err := parseWindows(value)
		return err
	},
}

func validateTransitionCount(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("want an integer, got %q", value)
	}
	if n < 1 {
		return fmt.Errorf("transition count must be at least 1, got %d", n)
	}
	return nil
}

func knownConfigKeys() string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func validateConfigEntry(key, value string) error {
	validate, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, knownConfigKeys())
	}
	if err := validate(value); err != nil {
		return fmt.Errorf("config key %q: %w", key, err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage assaygen configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.assaygen.yaml.",
		Example: `  assaygen config                                      # show all config
  assaygen config set generate.min-transitions 4       # set a default
  assaygen config set generate.swath-windows 400:425,425:450
  assaygen config get generate.swath-windows           # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.assaygen.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	if err := validateConfigEntry(key, value); err != nil {
		return err
	}
	if n, err := strconv.Atoi(value); err == nil {
		viper.Set(key, n)
	} else {
		viper.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".assaygen.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
