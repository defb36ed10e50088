package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/trigtrack/internal/output"
	"github.com/marcus/trigtrack/internal/syncconfig"
)

// validConfigKeys lists the supported config keys for set/get.
var validConfigKeys = []string{
	"sync.url",
	"sync.auto_sync",
	"debug",
}

func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q (use true/false/1/0)", val)
	}
}

func boolPtr(b bool) *bool { return &b }

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage trigtrack configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		switch key {
		case "sync.url":
			cfg.Sync.URL = val
		case "sync.auto_sync":
			b, err := parseBool(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Sync.AutoSync = boolPtr(b)
		case "debug":
			b, err := parseBool(val)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			cfg.Debug = b
		}

		if err := syncconfig.SaveConfig(cfg); err != nil {
			output.Error("save config: %v", err)
			return err
		}

		output.Success("set %s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if !isValidConfigKey(key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		var val string
		switch key {
		case "sync.url":
			val = cfg.Sync.URL
			if val == "" {
				val = syncconfig.GetServerURL() + " (default)"
			}
		case "sync.auto_sync":
			if cfg.Sync.AutoSync != nil {
				val = strconv.FormatBool(*cfg.Sync.AutoSync)
			} else {
				val = "true (default)"
			}
		case "debug":
			val = strconv.FormatBool(cfg.Debug)
		}

		fmt.Println(val)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}

		fmt.Println("sync.url =", syncconfig.GetServerURL())
		autoSync := "true (default)"
		if cfg.Sync.AutoSync != nil {
			autoSync = strconv.FormatBool(*cfg.Sync.AutoSync)
		}
		fmt.Println("sync.auto_sync =", autoSync)
		fmt.Println("debug =", strconv.FormatBool(cfg.Debug))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
