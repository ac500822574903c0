package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilwork/grimoire/internal/registry"
)

// Problem is a single query-level diagnostic.
type Problem struct {
	Query   string `json:"query"`
	Message string `json:"message"`
}

// ValidationResult holds validation results for a whole project.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Project  string    `json:"project"`
	Queries  int       `json:"queries"`
	Entries  int       `json:"entries"`
	Tables   []string  `json:"tables,omitempty"` // synthesized source tables
	Problems []Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Parse and resolve every model without building the graph",
		Long: `Load the project, discover its model files, and parse and resolve
every query. Problems are collected across all models and reported
together, so a single broken query never hides the rest.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	result := ValidationResult{
		Valid:   true,
		Project: ws.Project.Name,
		Queries: len(ws.Queries),
		Entries: collection.Len(),
		Tables:  report.Synthesized,
	}
	for _, outcome := range report.Rejected() {
		result.Valid = false
		result.Problems = append(result.Problems, Problem{Query: outcome.Name, Message: outcome.Err.Error()})
	}

	if !result.Valid {
		return outputProblems(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs a clean validation run.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d queries valid (%d entries, %d synthesized tables)\n",
		result.Queries, result.Entries, len(result.Tables))
	return nil
}

// outputProblems outputs per-query diagnostics and converts them into
// an exit-code-1 failure. Shared by validate, graph and compile.
func outputProblems(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Problems)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeQuery,
				Message: result.Problems[0].Message,
			},
		}
		if err := formatter.Envelope(response); err != nil {
			return err
		}
		return exitErr
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range result.Problems {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", p.Query, p.Message)
	}

	return exitErr
}
