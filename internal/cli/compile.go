package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veilwork/grimoire/internal/querysql"
	"github.com/veilwork/grimoire/internal/registry"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult holds the compiled SQL keyed by query name.
type CompileResult struct {
	Project string            `json:"project"`
	Queries map[string]string `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <project>",
		Short: "Translate every model to SQL",
		Long: `Load the project, register every model, and translate each stored
query into a single SELECT statement. Table entries synthesized for
bare dependencies have no query text and are skipped.

Text output is a SQL script with one commented block per query, in
name order. With --output the script is written to a file instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	ws, err := LoadWorkspace(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	collection := registry.NewCollection(registry.WithVars(ws.Project.VarMap()))
	report := collection.Register(ws.Queries)
	if rejected := report.Rejected(); len(rejected) > 0 {
		result := ValidationResult{Project: ws.Project.Name, Queries: len(ws.Queries), Entries: collection.Len()}
		for _, outcome := range rejected {
			result.Problems = append(result.Problems, Problem{Query: outcome.Name, Message: outcome.Err.Error()})
		}
		return outputProblems(formatter, result)
	}

	compiled := make(map[string]string, len(ws.Queries))
	var problems []Problem
	for _, entry := range collection.Entries() {
		q, ok := entry.(*registry.Query)
		if !ok {
			continue // synthesized table, nothing to translate
		}
		sql, err := querysql.Translate(q.Resolved())
		if err != nil {
			problems = append(problems, Problem{Query: q.Name(), Message: err.Error()})
			continue
		}
		compiled[q.Name()] = sql
	}

	if len(problems) > 0 {
		return outputCompileProblems(formatter, problems)
	}

	result := CompileResult{Project: ws.Project.Name, Queries: compiled}

	if opts.Output != "" {
		script := renderScript(collection, compiled)
		if err := os.WriteFile(opts.Output, []byte(script), 0o644); err != nil {
			_ = formatter.Error(ErrCodeUnreadable, fmt.Sprintf("writing %s: %v", opts.Output, err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Compiled %d queries to %s\n", len(compiled), opts.Output)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprint(formatter.Writer, renderScript(collection, compiled))
	return nil
}

// renderScript joins the compiled statements into one script, a
// commented block per query in collection order.
func renderScript(collection *registry.Collection, compiled map[string]string) string {
	var b strings.Builder
	first := true
	for _, entry := range collection.Entries() {
		q, ok := entry.(*registry.Query)
		if !ok {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		fmt.Fprintf(&b, "-- %s\n%s\n", q.Name(), compiled[q.Name()])
	}
	return b.String()
}

func outputCompileProblems(formatter *OutputFormatter, problems []Problem) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    ErrCodeTranslate,
				Message: problems[0].Message,
				Details: problems,
			},
		}
		if err := formatter.Envelope(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", p.Query, p.Message)
	}

	return exitErr
}
