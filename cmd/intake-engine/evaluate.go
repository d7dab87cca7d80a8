package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
)

var evaluateFlags struct {
	catalogPath string
	override    string
	assessor    string
	format      string
	output      string
	concurrency int
	noProgress  bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <snapshot>...",
	Short: "Evaluate case snapshots",
	Long: `Evaluate one or more case snapshot files (YAML or JSON) and record each
decision in the audit trail.

A directory argument evaluates every .yaml, .yml and .json file in it.
With more than one snapshot the cases are evaluated concurrently and a
summary table is printed. An override request applies to a single snapshot
only.

Examples:
  # Evaluate one case
  intake-engine evaluate case.yaml --assessor officer-12

  # Apply a supervisor-approved override
  intake-engine evaluate case.yaml --override override.yaml

  # Evaluate a directory of referrals and write CSV
  intake-engine evaluate referrals/ --format csv --output decisions.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateFlags.catalogPath, "catalog", "", "catalog file or directory (uses config if not specified)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.override, "override", "", "discretionary override request file")
	evaluateCmd.Flags().StringVar(&evaluateFlags.assessor, "assessor", "", "officer running the evaluation")
	evaluateCmd.Flags().StringVar(&evaluateFlags.format, "format", "text", "output format: text, json, csv")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.output, "output", "o", "", "output file (default: stdout)")
	evaluateCmd.Flags().IntVar(&evaluateFlags.concurrency, "concurrency", orchestrator.DefaultBatchConcurrency, "parallel evaluations for multiple snapshots")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.noProgress, "no-progress", false, "disable the progress bar")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evaluateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	catalogPath := cfg.Catalog.Path
	if evaluateFlags.catalogPath != "" {
		catalogPath = evaluateFlags.catalogPath
	}
	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	files, err := snapshotFiles(args)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	if len(files) == 0 {
		return cli.NewCommandError("evaluate", errors.New("no snapshot files found"))
	}
	if evaluateFlags.override != "" && len(files) > 1 {
		return cli.NewCommandError("evaluate", errors.New("--override applies to a single snapshot"))
	}

	inputs := make([]orchestrator.Input, len(files))
	for i, path := range files {
		snap, err := readSnapshot(path)
		if err != nil {
			return cli.NewCommandError("evaluate", err)
		}
		inputs[i] = orchestrator.Input{Snapshot: snap, Catalog: cat, Assessor: evaluateFlags.assessor}
	}
	if evaluateFlags.override != "" {
		req, err := readOverride(evaluateFlags.override)
		if err != nil {
			return cli.NewCommandError("evaluate", err)
		}
		inputs[0].Override = req
	}

	store, err := openStorage(&cfg.Audit)
	if err != nil {
		return err
	}
	defer store.Close()

	orch := orchestrator.New(
		audit.NewTrail(store, audit.WithLogger(logger)),
		orchestrator.WithLogger(logger),
	)

	out, closeOut, err := openOutput(evaluateFlags.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()
	formatter := cli.NewFormatter(format)

	if len(inputs) == 1 {
		bundle, err := orch.Evaluate(cmd.Context(), inputs[0])
		if err != nil {
			return cli.NewCommandError("evaluate", err)
		}
		if format == cli.FormatCSV {
			return formatter.FormatTo(out, newBatchReport(files, []orchestrator.BatchResult{{Bundle: bundle}}))
		}
		return formatter.FormatTo(out, bundle)
	}

	var progress cli.ProgressReporter = nopProgress{}
	if !evaluateFlags.noProgress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}
	results := evaluateAll(cmd, orch, inputs, progress)

	report := newBatchReport(files, results)
	if format == cli.FormatJSON {
		if err := formatter.FormatTo(out, report.items()); err != nil {
			return err
		}
	} else if err := formatter.FormatTo(out, report); err != nil {
		return err
	}
	return report.err()
}

// evaluateAll runs the batch in chunks so progress advances while it runs.
func evaluateAll(cmd *cobra.Command, orch *orchestrator.Orchestrator, inputs []orchestrator.Input, progress cli.ProgressReporter) []orchestrator.BatchResult {
	chunk := max(evaluateFlags.concurrency, 1)
	progress.Start(len(inputs))
	defer progress.Finish()

	results := make([]orchestrator.BatchResult, 0, len(inputs))
	for start := 0; start < len(inputs); start += chunk {
		end := min(start+chunk, len(inputs))
		for _, r := range orch.EvaluateBatch(cmd.Context(), inputs[start:end], chunk) {
			r.Index += start
			results = append(results, r)
			progress.Advance(r.Err != nil)
		}
	}
	return results
}

type nopProgress struct{}

func (nopProgress) Start(int)    {}
func (nopProgress) Advance(bool) {}
func (nopProgress) Finish()      {}

// batchReport is the per-file outcome of a multi-snapshot evaluation.
type batchReport struct {
	files   []string
	results []orchestrator.BatchResult
}

// batchItem is the JSON form of one batch result.
type batchItem struct {
	File     string                       `json:"file"`
	Decision *orchestrator.DecisionBundle `json:"decision,omitempty"`
	Error    string                       `json:"error,omitempty"`
	Kind     string                       `json:"error_kind,omitempty"`
}

func newBatchReport(files []string, results []orchestrator.BatchResult) *batchReport {
	return &batchReport{files: files, results: results}
}

func (r *batchReport) items() []batchItem {
	items := make([]batchItem, len(r.results))
	for i, res := range r.results {
		items[i] = batchItem{File: r.files[res.Index], Decision: res.Bundle}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
			items[i].Kind = errorKind(res.Err)
		}
	}
	return items
}

// Header implements cli.Tabular.
func (r *batchReport) Header() []string {
	return []string{"file", "case_id", "risk_total", "band", "disposition", "selected", "audit_entry_id", "error_kind", "error"}
}

// Rows implements cli.Tabular.
func (r *batchReport) Rows() [][]string {
	rows := make([][]string, len(r.results))
	for i, res := range r.results {
		row := []string{r.files[res.Index], "", "", "", "", "", "", "", ""}
		if b := res.Bundle; b != nil {
			row[1] = b.CaseID
			row[2] = strconv.Itoa(b.Score.Total)
			row[3] = string(b.Disposition.Band)
			row[4] = string(b.Disposition.Kind)
			row[5] = b.Disposition.Selected
			row[6] = b.AuditEntryID
		}
		if res.Err != nil {
			var evalErr *orchestrator.EvaluationError
			if errors.As(res.Err, &evalErr) {
				row[1] = evalErr.CaseID
				row[6] = evalErr.AuditEntryID
			}
			row[7] = errorKind(res.Err)
			row[8] = res.Err.Error()
		}
		rows[i] = row
	}
	return rows
}

// Summary implements cli.Summarizer.
func (r *batchReport) Summary() string {
	var b strings.Builder
	failed := 0
	for _, row := range r.Rows() {
		if row[7] != "" {
			failed++
			fmt.Fprintf(&b, "%-40s %-16s ERROR %s\n", row[0], row[1], row[8])
			continue
		}
		fmt.Fprintf(&b, "%-40s %-16s %-14s %-26s %s\n", row[0], row[1], row[3], row[4], row[5])
	}
	fmt.Fprintf(&b, "\n%d evaluated, %d failed\n", len(r.results), failed)
	return b.String()
}

// err returns the first failure so the exit code reflects it.
func (r *batchReport) err() error {
	for _, res := range r.results {
		if res.Err != nil {
			return cli.NewCommandError("evaluate", fmt.Errorf("%s: %w", r.files[res.Index], res.Err))
		}
	}
	return nil
}

func errorKind(err error) string {
	var evalErr *orchestrator.EvaluationError
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	return orchestrator.KindInternal
}
