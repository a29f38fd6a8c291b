package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/generation"
	"mercator-hq/quill/pkg/storage"
	"mercator-hq/quill/pkg/storage/retention"
)

// titleWidth truncates titles in text tables.
const titleWidth = 48

var generationsFlags struct {
	provider string
	model    string
	status   string
	user     string
	since    string
	until    string
	limit    int
	offset   int
	format   string
}

var generationsCmd = &cobra.Command{
	Use:     "generations",
	Aliases: []string{"gen"},
	Short:   "Inspect stored generations",
	Long: `Read generation records from the configured store.

Subcommands:
  list   - List generations with filters
  show   - Show one generation
  prune  - Apply the retention policy once`,
}

var generationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generations",
	Long: `List generations, newest first.

Examples:
  quill generations list --status failed --since 2025-11-19T00:00:00Z
  quill generations list --provider bedrock --format csv > bedrock.csv`,
	Args: cobra.NoArgs,
	RunE: listGenerations,
}

var generationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one generation",
	Args:  cobra.ExactArgs(1),
	RunE:  showGeneration,
}

var generationsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Args:  cobra.NoArgs,
	RunE:  pruneGenerations,
}

func init() {
	rootCmd.AddCommand(generationsCmd)
	generationsCmd.AddCommand(generationsListCmd, generationsShowCmd, generationsPruneCmd)

	f := generationsListCmd.Flags()
	f.StringVar(&generationsFlags.provider, "provider", "", "filter by provider")
	f.StringVar(&generationsFlags.model, "model", "", "filter by model")
	f.StringVar(&generationsFlags.status, "status", "", "filter by status (success, failed)")
	f.StringVar(&generationsFlags.user, "user", "", "filter by user ID")
	f.StringVar(&generationsFlags.since, "since", "", "only records created at or after (RFC3339)")
	f.StringVar(&generationsFlags.until, "until", "", "only records created before (RFC3339)")
	f.IntVar(&generationsFlags.limit, "limit", 50, "max results")
	f.IntVar(&generationsFlags.offset, "offset", 0, "pagination offset")
	f.StringVar(&generationsFlags.format, "format", "text", "output format: text, json, csv")

	generationsShowCmd.Flags().StringVar(&generationsFlags.format, "format", "text", "output format: text, json")
}

// openStore opens the configured store. The caller closes it.
func openStore() (storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, cli.NewCommandError("generations", err)
	}
	return store, nil
}

func listGenerations(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(generationsFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	query, err := buildQuery()
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.List(ctx, query)
	if err != nil {
		return cli.NewCommandError("generations", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.Count(ctx, query)
	if err != nil {
		return cli.NewCommandError("generations", fmt.Errorf("count failed: %w", err))
	}

	result := &generation.ListResult{
		Generations: make([]*generation.Generation, 0, len(records)),
		Total:       total,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	for _, r := range records {
		result.Generations = append(result.Generations, generation.FromRecord(r))
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(out, result)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(out, generationTable(result.Generations))
	}

	if len(result.Generations) == 0 {
		fmt.Fprintln(out, "No generations found.")
		return nil
	}
	if err := cli.NewFormatter(format).FormatTo(out, generationTable(result.Generations)); err != nil {
		return err
	}
	if shown := int64(query.Offset + len(result.Generations)); shown < total {
		fmt.Fprintf(out, "\nShowing %d of %d. Use --limit and --offset for pagination.\n", len(result.Generations), total)
	}
	return nil
}

func buildQuery() (*storage.Query, error) {
	query := &storage.Query{
		Provider: generationsFlags.provider,
		Model:    generationsFlags.model,
		Status:   generationsFlags.status,
		UserID:   generationsFlags.user,
		Limit:    generationsFlags.limit,
		Offset:   generationsFlags.offset,
	}
	if query.Limit < 0 || query.Offset < 0 {
		return nil, errors.New("limit and offset must be non-negative")
	}

	var err error
	if generationsFlags.since != "" {
		if query.Since, err = time.Parse(time.RFC3339, generationsFlags.since); err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if generationsFlags.until != "" {
		if query.Until, err = time.Parse(time.RFC3339, generationsFlags.until); err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
	}
	return query, nil
}

func showGeneration(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(generationsFlags.format)
	if err != nil || format == cli.FormatCSV {
		return cli.NewConfigError("format", fmt.Sprintf("unsupported output format %q", generationsFlags.format))
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(cmd.Context(), args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return cli.NewCommandError("generations", fmt.Errorf("generation %q not found", args[0]))
	}
	if err != nil {
		return cli.NewCommandError("generations", err)
	}

	gen := generation.FromRecord(record)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), gen)
	}
	printGeneration(cmd.OutOrStdout(), gen)
	return nil
}

func printGeneration(w io.Writer, g *generation.Generation) {
	fmt.Fprintf(w, "ID: %s\n", g.ID)
	if g.RequestID != "" {
		fmt.Fprintf(w, "Request ID: %s\n", g.RequestID)
	}
	fmt.Fprintf(w, "Created: %s\n", g.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Provider: %s\n", g.Provider)
	fmt.Fprintf(w, "Model: %s\n", g.Model)
	fmt.Fprintf(w, "Status: %s\n", g.Status)
	fmt.Fprintf(w, "Latency: %dms\n", g.LatencyMs)
	fmt.Fprintf(w, "Tokens: %d (prompt: %d, completion: %d)\n",
		g.Usage.TotalTokens, g.Usage.PromptTokens, g.Usage.CompletionTokens)
	fmt.Fprintf(w, "\nPrompt:\n%s\n", g.Prompt)

	if g.Error != "" {
		fmt.Fprintf(w, "\nError (%s): %s\n", g.ErrorType, g.Error)
		if g.Preview != "" {
			fmt.Fprintf(w, "Preview: %s\n", g.Preview)
		}
		return
	}
	fmt.Fprintf(w, "\nTitle: %s\n", g.Title)
	fmt.Fprintf(w, "Confident: %t (%s)\n", g.Confident, g.RecoveryPath)
	fmt.Fprintf(w, "\nSpecs:\n%s\n", g.Specs)
}

func pruneGenerations(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return cli.NewCommandError("generations", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, retention.FromConfig(cfg.Storage.Retention))
	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("generations", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d generations\n", deleted)
	return nil
}

// generationTable renders generations as rows for text and CSV output.
type generationTable []*generation.Generation

func (t generationTable) Header() []string {
	return []string{"ID", "CREATED", "PROVIDER", "MODEL", "STATUS", "CONFIDENT", "TITLE"}
}

func (t generationTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, g := range t {
		title := g.Title
		if g.Status != storage.StatusSuccess {
			title = g.ErrorType
		}
		rows = append(rows, []string{
			g.ID,
			g.CreatedAt.UTC().Format(time.RFC3339),
			g.Provider,
			g.Model,
			g.Status,
			strconv.FormatBool(g.Confident),
			truncate(title, titleWidth),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
