package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabloom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		for _, k := range cfgpkg.Keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, configValue(cfg, k))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "api_key":
		return mask(c.APIKey)
	case "planner_provider":
		if c.PlannerProvider == "" {
			return "none"
		}
		return c.PlannerProvider
	case "planner_model":
		return c.PlannerModel
	case "planner_timeout_sec":
		return fmt.Sprint(c.PlannerTimeoutSec)
	case "ollama_host":
		return c.OllamaHost
	case "http_timeout_sec":
		return fmt.Sprint(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return fmt.Sprint(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return fmt.Sprint(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return fmt.Sprint(c.RetryMaxDelayMs)
	case "default_depth":
		return c.DefaultDepth
	case "parallelism":
		return fmt.Sprint(c.Parallelism)
	case "log_level":
		return c.LogLevel
	case "server_addr":
		return c.ServerAddr
	case "cors_origins":
		return strings.Join(c.CORSOrigins, ",")
	}
	return ""
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
