package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reviews/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = "reviews.toml"
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return errors.New(fmt.Sprintf("config file already exists at %s (use --overwrite to replace it)", target), errors.CategoryConflict)
				} else if !os.IsNotExist(err) {
					return errors.Wrap(err, errors.CategoryInternal, "check config path")
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the sample (default reviews.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	return cmd
}

// show masks the secrets before printing
func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			masked := *cfg
			masked.Auth.SecretKey = mask(masked.Auth.SecretKey)
			retired := make(map[string]string, len(cfg.Auth.RetiredKeys))
			for kid, key := range cfg.Auth.RetiredKeys {
				retired[kid] = mask(key)
			}
			masked.Auth.RetiredKeys = retired

			fmt.Fprintln(cmd.OutOrStdout(), print.MaybeHighlightJSON(masked))
			return nil
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}
