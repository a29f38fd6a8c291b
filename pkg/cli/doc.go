/*
Package cli provides helpers shared by the quill commands.

Output Formatting:

Results can be printed as aligned text, JSON or CSV. Values that implement
Table render as columns in text mode and as rows in CSV mode:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, table); err != nil {
		return err
	}

Errors and Exit Codes:

Commands return ConfigError or CommandError; ExitCode maps them to the
process exit status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
