package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyquiz/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("path")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		var err error
		if strings.TrimSpace(target) == "" {
			target, err = config.DefaultConfigPath()
		} else {
			target, err = config.ExpandPath(target)
		}
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}

		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check config path: %w", err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
		fmt.Fprintln(out, "Export OPENAI_API_KEY and OPENROUTER_API_KEY (or set them in the file) before generating.")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exists {
			fmt.Fprintf(out, "Configuration valid: %s\n", resolved)
		} else {
			fmt.Fprintf(out, "Configuration valid (defaults; no file at %s)\n", resolved)
		}

		keyState := func(k string) string {
			if k == "" {
				return "missing"
			}
			return "set"
		}
		rows := [][]string{
			{"pro", cfg.LLM.ProVendor, vendorModel(cfg, cfg.LLM.ProVendor), keyState(vendorKey(cfg, cfg.LLM.ProVendor))},
			{"free", cfg.LLM.FreeVendor, vendorModel(cfg, cfg.LLM.FreeVendor), keyState(vendorKey(cfg, cfg.LLM.FreeVendor))},
		}
		fmt.Fprintln(out, renderTable([]string{"Tier", "Vendor", "Model", "API key"}, rows, nil))
		return nil
	},
}

func vendorModel(cfg *config.Config, vendor string) string {
	switch vendor {
	case "openai":
		return cfg.LLM.OpenAI.Model
	case "anthropic":
		return cfg.LLM.Anthropic.Model
	case "gemini":
		return cfg.LLM.Gemini.Model
	case "openrouter":
		return cfg.LLM.OpenRouter.Model
	}
	return "-"
}

func vendorKey(cfg *config.Config, vendor string) string {
	switch vendor {
	case "openai":
		return cfg.LLM.OpenAI.APIKey
	case "anthropic":
		return cfg.LLM.Anthropic.APIKey
	case "gemini":
		return cfg.LLM.Gemini.APIKey
	case "openrouter":
		return cfg.LLM.OpenRouter.APIKey
	}
	return "n/a"
}

func init() {
	configInitCmd.Flags().StringP("path", "p", "", "Destination for the configuration file")
	configInitCmd.Flags().Bool("overwrite", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}
