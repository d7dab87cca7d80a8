package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// columns is the flattened header shared by the tabular exporters.
var columns = []string{
	"id", "case_id", "sequence", "kind", "timestamp",
	"snapshot_id", "assessor", "catalog_version",
	"risk_total", "band", "disposition", "selected_alternative",
	"override", "eligible_programs",
	"error_kind", "error_message",
	"supersedes", "notes",
	"review_of", "approved",
	"snapshot_hash",
	"prev_hash", "content_hash",
}

// Columns returns the header row used by CSV and XLSX exports.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// flatten converts an entry into a row aligned with columns.
func flatten(e *audit.Entry) []string {
	riskTotal := ""
	if total, ok := e.RiskTotal(); ok {
		riskTotal = strconv.Itoa(total)
	}

	selected := ""
	if e.Disposition != nil {
		selected = e.Disposition.Selected
	}

	overrideKind := ""
	if e.Override != nil {
		overrideKind = string(e.Override.Kind)
	}

	var eligible []string
	for _, r := range e.Eligibility {
		if r.Eligible {
			eligible = append(eligible, r.Program)
		}
	}

	errKind, errMsg := "", ""
	if e.Error != nil {
		errKind, errMsg = e.Error.Kind, e.Error.Message
	}

	approved := ""
	if e.Approved != nil {
		approved = strconv.FormatBool(*e.Approved)
	}

	return []string{
		e.ID,
		e.CaseID,
		strconv.FormatInt(e.Sequence, 10),
		string(e.Kind),
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.SnapshotID,
		e.Assessor,
		e.CatalogVersion,
		riskTotal,
		e.Band(),
		e.DispositionKind(),
		selected,
		overrideKind,
		strings.Join(eligible, ";"),
		errKind,
		errMsg,
		e.Supersedes,
		e.Notes,
		e.ReviewOf,
		approved,
		e.SnapshotHash,
		e.PrevHash,
		e.ContentHash,
	}
}
