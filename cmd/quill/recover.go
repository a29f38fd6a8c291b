package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/recovery"
)

var recoverFlags struct {
	bracketMode   string
	previewLength int
	primary       string
	body          string
	confident     string
}

var recoverCmd = &cobra.Command{
	Use:   "recover [file]",
	Short: "Recover a listing from raw model output",
	Long: `Read model output from a file (or stdin) and print the recovered
listing as JSON.

If nothing can be recovered the command prints a preview of the input to
stderr and exits with status 3.

Examples:
  quill recover output.txt
  pbpaste | quill recover --bracket-mode balanced`,
	Args: cobra.MaximumNArgs(1),
	RunE: recoverOutput,
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVar(&recoverFlags.bracketMode, "bracket-mode", "greedy", "candidate extraction: greedy or balanced")
	recoverCmd.Flags().IntVar(&recoverFlags.previewLength, "preview-length", recovery.DefaultPreviewLength, "characters of input echoed on failure")
	recoverCmd.Flags().StringVar(&recoverFlags.primary, "primary-field", recovery.DefaultFields.Primary, "JSON key of the primary text")
	recoverCmd.Flags().StringVar(&recoverFlags.body, "body-field", recovery.DefaultFields.Body, "JSON key of the body text")
	recoverCmd.Flags().StringVar(&recoverFlags.confident, "confident-field", recovery.DefaultFields.Confident, "JSON key of the confidence flag")
}

func recoverOutput(cmd *cobra.Command, args []string) error {
	mode, err := recovery.ParseBracketMode(recoverFlags.bracketMode)
	if err != nil {
		return cli.NewConfigError("bracket-mode", err.Error())
	}

	parser, err := recovery.New(
		recovery.WithBracketMode(mode),
		recovery.WithPreviewLength(recoverFlags.previewLength),
		recovery.WithFields(recovery.Fields{
			Primary:   recoverFlags.primary,
			Body:      recoverFlags.body,
			Confident: recoverFlags.confident,
		}),
	)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	var input []byte
	if len(args) == 1 && args[0] != "-" {
		input, err = os.ReadFile(args[0])
	} else {
		input, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return cli.NewCommandError("recover", err)
	}

	result, err := parser.Recover(string(input))
	if err != nil {
		var failed *recovery.RecoveryFailedError
		if errors.As(err, &failed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\npreview: %s\n", recovery.ErrRecoveryFailed, failed.Preview)
		}
		return &cli.CommandError{Command: "recover", Err: recovery.ErrRecoveryFailed, Code: cli.ExitRecovery}
	}

	return cli.NewFormatter(cli.FormatJSON).FormatTo(cmd.OutOrStdout(), result)
}
