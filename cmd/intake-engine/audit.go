package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/export"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/query"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit/report"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/cli"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/config"
)

var auditFlags struct {
	caseIDs     []string
	kind        string
	assessor    string
	disposition string
	band        string
	timeRange   string
	limit       int
	offset      int
	order       string
	format      string
	output      string

	supersedes string
	reviewer   string
	notes      string

	decision    string
	approve     bool
	requestInfo bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read, query and verify the audit trail",
	Long: `Access the append-only audit trail of intake decisions.

Subcommands:
  read    - Print every entry of a case in sequence order
  query   - Query entries across cases with filters
  export  - Export matching entries to JSON, CSV or XLSX
  report  - Summarize decisions, bands and risk totals
  correct - Append a reviewer correction to a case
  review  - Approve a decision or ask for more information
  verify  - Verify the hash chain of one or more cases

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-06-01T00:00:00Z/2026-07-01T00:00:00Z"

Examples:
  # Read a case's trail
  intake-engine audit read --case JV-2026-0142

  # Detention decisions in June as CSV
  intake-engine audit query --disposition secure_detention \
    --time-range "2026-06-01T00:00:00Z/2026-07-01T00:00:00Z" --format csv

  # Export everything to a workbook
  intake-engine audit export --format xlsx --output audit.xlsx

  # Verify every case
  intake-engine audit verify`,
}

var auditReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Print a case's audit entries",
	RunE:  readAudit,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit entries",
	RunE:  queryAudit,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit entries",
	Long: `Export matching audit entries. JSON and CSV are streamed; XLSX is built in
memory. Without --limit every matching entry is exported.`,
	RunE: exportAudit,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a supervisory report",
	RunE:  reportAudit,
}

var auditCorrectCmd = &cobra.Command{
	Use:   "correct",
	Short: "Append a correction entry",
	Long: `Append a correction entry that supersedes an earlier entry of the same
case. The original entry is never modified.`,
	RunE: correctAudit,
}

var auditReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Approve a decision or request more information",
	Long: `Append a review entry ruling on a decision of the same case. Pass
--approve to accept the recommendation or --request-info with --notes to
send it back.`,
	RunE: reviewAudit,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit hash chains",
	Long: `Verify the sequence and hash chain of the given cases, or of every case
in the trail when no --case is given. Exits with code 4 when any chain
fails verification.`,
	RunE: verifyAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditReadCmd, auditQueryCmd, auditExportCmd, auditReportCmd, auditCorrectCmd, auditReviewCmd, auditVerifyCmd)

	auditReadCmd.Flags().StringSliceVar(&auditFlags.caseIDs, "case", nil, "case id")
	auditReadCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	_ = auditReadCmd.MarkFlagRequired("case")

	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd, auditReportCmd} {
		c.Flags().StringSliceVar(&auditFlags.caseIDs, "case", nil, "filter by case id")
		c.Flags().StringVar(&auditFlags.kind, "kind", "", "filter by entry kind (decision, error, correction, review)")
		c.Flags().StringVar(&auditFlags.assessor, "assessor", "", "filter by assessor")
		c.Flags().StringVar(&auditFlags.disposition, "disposition", "", "filter by disposition")
		c.Flags().StringVar(&auditFlags.band, "band", "", "filter by risk band")
		c.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		c.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		c.Flags().IntVar(&auditFlags.limit, "limit", 0, "max results (query defaults to the configured limit)")
		c.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
		c.Flags().StringVar(&auditFlags.order, "order", "asc", "sort order: asc, desc")
	}
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditExportCmd.Flags().StringVar(&auditFlags.format, "format", "json", "export format: json, csv, xlsx")
	auditReportCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")

	auditCorrectCmd.Flags().StringSliceVar(&auditFlags.caseIDs, "case", nil, "case id")
	auditCorrectCmd.Flags().StringVar(&auditFlags.supersedes, "supersedes", "", "id of the entry being corrected")
	auditCorrectCmd.Flags().StringVar(&auditFlags.reviewer, "reviewer", "", "reviewer recording the correction")
	auditCorrectCmd.Flags().StringVar(&auditFlags.notes, "notes", "", "correction notes")
	for _, name := range []string{"case", "supersedes", "reviewer", "notes"} {
		_ = auditCorrectCmd.MarkFlagRequired(name)
	}

	auditReviewCmd.Flags().StringSliceVar(&auditFlags.caseIDs, "case", nil, "case id")
	auditReviewCmd.Flags().StringVar(&auditFlags.decision, "decision", "", "id of the decision entry under review")
	auditReviewCmd.Flags().StringVar(&auditFlags.reviewer, "reviewer", "", "officer recording the review")
	auditReviewCmd.Flags().BoolVar(&auditFlags.approve, "approve", false, "approve the decision")
	auditReviewCmd.Flags().BoolVar(&auditFlags.requestInfo, "request-info", false, "request more information")
	auditReviewCmd.Flags().StringVar(&auditFlags.notes, "notes", "", "review notes (required with --request-info)")
	for _, name := range []string{"case", "decision", "reviewer"} {
		_ = auditReviewCmd.MarkFlagRequired(name)
	}
	auditReviewCmd.MarkFlagsMutuallyExclusive("approve", "request-info")
	auditReviewCmd.MarkFlagsOneRequired("approve", "request-info")

	auditVerifyCmd.Flags().StringSliceVar(&auditFlags.caseIDs, "case", nil, "case id (repeatable; default: every case)")
}

// withStorage opens the configured audit backend for the duration of fn.
func withStorage(fn func(cfg *config.Config, store audit.Storage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := newLogger(cfg, nil); err != nil {
		return err
	}
	store, err := openStorage(&cfg.Audit)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// singleCase returns the one --case value a subcommand requires.
func singleCase() (string, error) {
	if len(auditFlags.caseIDs) != 1 {
		return "", errors.New("exactly one --case is required")
	}
	return auditFlags.caseIDs[0], nil
}

// buildQuery assembles a query from the filter flags.
func buildQuery() (*audit.Query, error) {
	q := &audit.Query{
		Kind:        audit.EntryKind(auditFlags.kind),
		Assessor:    auditFlags.assessor,
		Disposition: auditFlags.disposition,
		Band:        auditFlags.band,
		Limit:       auditFlags.limit,
		Offset:      auditFlags.offset,
		SortOrder:   auditFlags.order,
	}
	switch len(auditFlags.caseIDs) {
	case 0:
	case 1:
		q.CaseID = auditFlags.caseIDs[0]
	default:
		return nil, errors.New("at most one --case filter is supported")
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime = &start
		q.EndTime = &end
	}
	return q, query.Validate(q)
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func readAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}
	caseID, err := singleCase()
	if err != nil {
		return err
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		entries, err := store.Read(cmd.Context(), caseID)
		if err != nil {
			return cli.NewCommandError("audit read", err)
		}
		if len(entries) == 0 {
			return cli.NewCommandError("audit read", fmt.Errorf("case %s: %w", caseID, audit.ErrNotFound))
		}
		return writeEntries(cmd.OutOrStdout(), format, entries)
	})
}

func queryAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}
	q, err := buildQuery()
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		if err := applyQueryLimits(q, &cfg.Audit.Query); err != nil {
			return cli.NewCommandError("audit query", err)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Audit.Query.Timeout)
		defer cancel()

		entries, err := store.Query(ctx, q)
		if err != nil {
			return cli.NewCommandError("audit query", err)
		}

		out, closeOut, err := openOutput(auditFlags.output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()
		return writeEntries(out, format, entries)
	})
}

// applyQueryLimits applies the configured default and maximum limits.
func applyQueryLimits(q *audit.Query, limits *config.QueryConfig) error {
	if q.Limit == 0 {
		q.Limit = limits.DefaultLimit
	}
	if q.Limit > limits.MaxLimit {
		return audit.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", limits.MaxLimit, q.Limit))
	}
	return query.Prepare(q)
}

// streamExporter is implemented by exporters that can write entries as
// they arrive.
type streamExporter interface {
	ExportStream(ctx context.Context, entries <-chan *audit.Entry, w io.Writer) error
}

func exportAudit(cmd *cobra.Command, args []string) error {
	q, err := buildQuery()
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		exporter, err := newExporter(auditFlags.format, &cfg.Audit.Export)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}

		out, closeOut, err := openOutput(auditFlags.output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()

		if se, ok := exporter.(streamExporter); ok {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			entriesCh, errCh, err := store.QueryStream(ctx, q)
			if err != nil {
				return cli.NewCommandError("audit export", err)
			}
			if err := se.ExportStream(ctx, entriesCh, out); err != nil {
				return cli.NewCommandError("audit export", err)
			}
			if err := <-errCh; err != nil {
				return cli.NewCommandError("audit export", err)
			}
			return nil
		}

		entries, err := store.Query(cmd.Context(), q)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		if err := exporter.Export(cmd.Context(), entries, out); err != nil {
			return cli.NewCommandError("audit export", err)
		}
		return nil
	})
}

// newExporter builds the exporter for a format honoring the export settings.
func newExporter(format string, cfg *config.ExportConfig) (audit.Exporter, error) {
	switch format {
	case "json":
		return export.NewJSONExporter(cfg.JSONPretty), nil
	case "csv":
		return export.NewCSVExporter(cfg.CSVIncludeHeader), nil
	default:
		return export.New(format, false)
	}
}

func reportAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return errors.New("report supports text and json output")
	}
	q, err := buildQuery()
	if err != nil {
		return cli.NewCommandError("audit report", err)
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		r, err := report.Build(cmd.Context(), store, q)
		if err != nil {
			return cli.NewCommandError("audit report", err)
		}

		out, closeOut, err := openOutput(auditFlags.output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()

		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(out, r)
		}
		return r.WriteText(out)
	})
}

func correctAudit(cmd *cobra.Command, args []string) error {
	caseID, err := singleCase()
	if err != nil {
		return err
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		trail := audit.NewTrail(store)
		entry, err := trail.Correct(cmd.Context(), caseID, auditFlags.supersedes, auditFlags.reviewer, auditFlags.notes)
		if err != nil {
			return cli.NewCommandError("audit correct", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Correction %s recorded for case %s (sequence %d, supersedes %s)\n",
			entry.ID, entry.CaseID, entry.Sequence, entry.Supersedes)
		return nil
	})
}

func reviewAudit(cmd *cobra.Command, args []string) error {
	caseID, err := singleCase()
	if err != nil {
		return err
	}
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		trail := audit.NewTrail(store)
		entry, err := trail.Review(cmd.Context(), caseID, auditFlags.decision, auditFlags.reviewer, auditFlags.approve, auditFlags.notes)
		if err != nil {
			return cli.NewCommandError("audit review", err)
		}
		verdict := "approved"
		if !auditFlags.approve {
			verdict = "more information requested"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Review %s recorded for case %s (sequence %d, %s for %s)\n",
			entry.ID, entry.CaseID, entry.Sequence, verdict, entry.ReviewOf)
		return nil
	})
}

func verifyAudit(cmd *cobra.Command, args []string) error {
	return withStorage(func(cfg *config.Config, store audit.Storage) error {
		caseIDs := auditFlags.caseIDs
		if len(caseIDs) == 0 {
			ids, err := allCaseIDs(cmd.Context(), store)
			if err != nil {
				return cli.NewCommandError("audit verify", err)
			}
			caseIDs = ids
		}

		trail := audit.NewTrail(store)
		out := cmd.OutOrStdout()
		var failed []string
		for _, id := range caseIDs {
			err := trail.Verify(cmd.Context(), id)
			var integrityErr *audit.IntegrityError
			switch {
			case err == nil:
				fmt.Fprintf(out, "✓ %s\n", id)
			case errors.As(err, &integrityErr):
				failed = append(failed, id)
				fmt.Fprintf(out, "✗ %s: %s (entry %s, sequence %d)\n", id, integrityErr.Reason, integrityErr.EntryID, integrityErr.Sequence)
			default:
				return cli.NewCommandError("audit verify", err)
			}
		}
		fmt.Fprintf(out, "\n%d cases verified, %d failed\n", len(caseIDs), len(failed))

		if len(failed) > 0 {
			return cli.NewCommandError("audit verify", &cli.IntegrityError{Cases: failed})
		}
		return nil
	})
}

// allCaseIDs streams the whole trail and returns each case id once, in
// first-seen order.
func allCaseIDs(ctx context.Context, store audit.Storage) ([]string, error) {
	entriesCh, errCh, err := store.QueryStream(ctx, &audit.Query{SortOrder: "asc"})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for e := range entriesCh {
		if !seen[e.CaseID] {
			seen[e.CaseID] = true
			ids = append(ids, e.CaseID)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return ids, nil
}

// writeEntries prints entries as a table, JSON array or CSV.
func writeEntries(w io.Writer, format cli.OutputFormat, entries []*audit.Entry) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, entries)
	}
	return cli.NewFormatter(format).FormatTo(w, entryTable(entries))
}

// entryTable renders audit entries for text and CSV output.
type entryTable []*audit.Entry

// Header implements cli.Tabular.
func (t entryTable) Header() []string {
	return []string{"case_id", "sequence", "timestamp", "id", "kind", "assessor", "band", "disposition", "selected", "error_kind", "supersedes", "review_of", "approved"}
}

// Rows implements cli.Tabular.
func (t entryTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, e := range t {
		var selected, errKind, approved string
		if e.Approved != nil {
			approved = strconv.FormatBool(*e.Approved)
		}
		if e.Disposition != nil {
			selected = e.Disposition.Selected
		}
		if e.Error != nil {
			errKind = e.Error.Kind
		}
		rows[i] = []string{
			e.CaseID,
			strconv.FormatInt(e.Sequence, 10),
			e.Timestamp.Format(time.RFC3339Nano),
			e.ID,
			string(e.Kind),
			e.Assessor,
			e.Band(),
			e.DispositionKind(),
			selected,
			errKind,
			e.Supersedes,
			e.ReviewOf,
			approved,
		}
	}
	return rows
}

// Summary implements cli.Summarizer.
func (t entryTable) Summary() string {
	var b strings.Builder
	for _, row := range t.Rows() {
		fmt.Fprintf(&b, "%-16s #%-3s %s  %-10s", row[0], row[1], row[2], row[4])
		switch {
		case row[9] != "":
			fmt.Fprintf(&b, "  error=%s", row[9])
		case row[10] != "":
			fmt.Fprintf(&b, "  supersedes=%s", row[10])
		case row[11] != "":
			fmt.Fprintf(&b, "  review_of=%s approved=%s", row[11], row[12])
		default:
			fmt.Fprintf(&b, "  %s %s %s", row[6], row[7], row[8])
		}
		if row[5] != "" {
			fmt.Fprintf(&b, "  by %s", row[5])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d entries\n", len(t))
	return b.String()
}
