// Package commands implements the CLI commands for sitebrief.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/internal/output"
)

var rootCmd = &cobra.Command{
	Use:   "sitebrief",
	Short: "Turn websites and generated text into structured brand briefs",
	Long: `Sitebrief acquires prompt-ready text from a website and recovers
structured records from model output that may be wrapped in prose,
code fences or near-miss JSON.

Examples:
  # Fetch a page, falling back to a description if the site is down
  sitebrief acquire harbourcoffee.com --fallback "Waterfront roastery"

  # Recover a brand profile from saved model output
  sitebrief extract -i reply.txt --preset profile --tone playful

  # Extract with a custom schema and print YAML
  sitebrief extract -i reply.txt -s schema.yaml -f yaml

  # Show the JSON Schema to send with a structured-output request
  sitebrief schema --preset posts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.sitebrief.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".sitebrief")
		viper.SetConfigType("yaml")
	}

	// SITEBRIEF_ACQUIRE_TIMEOUT maps to acquire.timeout, and so on.
	viper.SetEnvPrefix("SITEBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// addOutputFlags registers the shared --output and --format flags.
func addOutputFlags(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringP("format", "f", defaultFormat, "output format: json, jsonl, yaml")
}

// openWriter creates the writer selected by --output and --format. The
// returned close function flushes the writer and closes any file.
func openWriter(cmd *cobra.Command) (output.Writer, func() error, error) {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return nil, nil, err
	}

	var (
		dst  io.Writer = cmd.OutOrStdout()
		file *os.File
	)
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		file, err = os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			return nil, nil, fmt.Errorf("create output file: %w", err)
		}
		dst = file
	}

	w, err := output.New(dst, format)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, nil, err
	}

	closeFn := func() error {
		werr := w.Close()
		if file != nil {
			if err := file.Close(); err != nil && werr == nil {
				werr = err
			}
		}
		return werr
	}
	return w, closeFn, nil
}
