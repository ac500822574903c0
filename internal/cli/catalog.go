package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilwork/grimoire/internal/catalog"
)

// CatalogOptions holds catalog command flags.
type CatalogOptions struct {
	*RootOptions
	Database string
}

// CatalogResult summarizes a catalog import.
type CatalogResult struct {
	Project  string `json:"project"`
	Database string `json:"database"`
	Sources  int    `json:"sources"`
	Columns  int    `json:"columns"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog <project>",
		Short: "Import declared sources into the catalog database",
		Long: `Read the source declarations from the project's property document
and upsert them into the catalog database at --db. Disabled sources
are skipped. The graph command reads the same database to check
column references.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the catalog database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCatalog(opts *CatalogOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	ws, err := LoadWorkspace(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	var tables []catalog.SourceTable
	if ws.Properties != nil {
		for _, table := range catalog.FromProperties(ws.Properties) {
			if ws.Project.SourceEnabled(table.Name) {
				tables = append(tables, table)
			}
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := catalog.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "catalog unavailable", err)
	}
	defer cat.Close()

	if err := cat.ImportSources(ctx, tables); err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitFailure, "catalog import failed", err)
	}

	columns := 0
	for _, table := range tables {
		columns += len(table.Columns)
	}
	result := CatalogResult{
		Project:  ws.Project.Name,
		Database: opts.Database,
		Sources:  len(tables),
		Columns:  columns,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d sources (%d columns) into %s\n",
		result.Sources, result.Columns, result.Database)
	return nil
}
