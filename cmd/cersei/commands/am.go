package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Show and validate configuration",
	Long: sym.AM + ` am — Show and validate configuration

Configuration sources (in order of precedence):
1. Environment variables (CERSEI_* prefix, .env is loaded first)
2. Project config (./cersei.toml, searched upwards)
3. User config (~/.cersei/cersei.toml)
4. System config (/etc/cersei/cersei.toml)
5. Default values

Examples:
  cersei am show                    # Show effective configuration
  cersei am show --format json      # Show configuration in JSON format
  cersei am validate                # Validate effective configuration
  cersei am validate cersei.toml    # Strictly check one file`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate configuration",
	Long: `Validate the effective configuration, or, given a file, strictly decode
that file and report keys that do not map to any setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmValidate,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Printf("# cersei configuration\n%s", string(data))

	case "toml":
		out, err := am.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("# cersei configuration\n%s", out)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	var (
		cfg *am.Config
		err error
	)
	if len(args) == 1 {
		unknown, err := am.CheckFile(args[0])
		if err != nil {
			return err
		}
		if len(unknown) > 0 {
			for _, key := range unknown {
				pterm.Error.Printf("Unknown key: %s\n", key)
			}
			return errors.Newf("%s has %d unknown keys", args[0], len(unknown))
		}
		cfg, err = am.LoadFromFile(args[0])
		if err != nil {
			return err
		}
	} else if cfg, err = am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}
