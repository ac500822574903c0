package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veilwork/grimoire/internal/catalog"
	"github.com/veilwork/grimoire/internal/plan"
	"github.com/veilwork/grimoire/internal/registry"
)

// GraphOptions holds graph command flags.
type GraphOptions struct {
	*RootOptions
	Dot      bool
	Database string
}

// GraphResult describes the shape of a built dependency graph.
type GraphResult struct {
	Project  string   `json:"project"`
	Nodes    int      `json:"nodes"`
	Edges    int      `json:"edges"`
	Roots    []string `json:"roots"`
	Order    []string `json:"order"`
	Isolated []string `json:"isolated,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <project>",
		Short: "Build the dependency graph and print its shape",
		Long: `Load the project, register every model, and build the dependency
graph. Prints node and edge counts, the root tables, and an execution
order in which every query runs after its dependencies.

With --dot the graph is printed in DOT format for Graphviz instead and
--format is ignored. With --db column references are checked against
the source catalog built by the catalog command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dot, "dot", false, "print the graph in DOT format")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to a source catalog database")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	ws, err := LoadWorkspace(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	collectionOpts := []registry.Option{registry.WithVars(ws.Project.VarMap())}
	if opts.Database != "" {
		view, err := loadCatalogView(cmd.Context(), opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "catalog unavailable", err)
		}
		collectionOpts = append(collectionOpts, registry.WithCatalog(view))
	}

	collection := registry.NewCollection(collectionOpts...)
	report := collection.Register(ws.Queries)
	if rejected := report.Rejected(); len(rejected) > 0 {
		result := ValidationResult{Project: ws.Project.Name, Queries: len(ws.Queries), Entries: collection.Len()}
		for _, outcome := range rejected {
			result.Problems = append(result.Problems, Problem{Query: outcome.Name, Message: outcome.Err.Error()})
		}
		return outputProblems(formatter, result)
	}

	p, err := plan.BuildPlan(collection)
	if err != nil {
		_ = formatter.Error(ErrCodeGraph, err.Error(), nil)
		return WrapExitError(ExitFailure, "graph construction failed", err)
	}

	if opts.Dot {
		_, err := cmd.OutOrStdout().Write(p.Dot())
		return err
	}

	result := GraphResult{
		Project:  ws.Project.Name,
		Nodes:    p.Graph.Len(),
		Edges:    p.Graph.EdgeCount(),
		Roots:    p.RootNames(),
		Order:    p.ExecutionOrder(),
		Isolated: p.Isolated,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Graph: %d nodes, %d edges\n", result.Nodes, result.Edges)
	fmt.Fprintf(formatter.Writer, "Roots: %s\n", strings.Join(result.Roots, ", "))
	fmt.Fprintf(formatter.Writer, "Order: %s\n", strings.Join(result.Order, ", "))
	if len(result.Isolated) > 0 {
		fmt.Fprintf(formatter.Writer, "Isolated: %s\n", strings.Join(result.Isolated, ", "))
	}
	return nil
}

// loadCatalogView opens the catalog just long enough to snapshot it.
func loadCatalogView(ctx context.Context, path string) (*catalog.View, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := catalog.Open(path)
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	return cat.Snapshot(ctx)
}
