package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill - prompt-to-listing generation gateway",
	Long: `Quill proxies product descriptions to AI text-generation providers
(OpenAI, Anthropic, Gemini, Bedrock), recovers a structured listing from
whatever the model returned and stores every attempt.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}

// loadConfig reads the config file with environment overrides. A missing
// file yields defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}
