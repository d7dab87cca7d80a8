package audit

// Matches reports whether an entry satisfies the query filters. Pagination
// and sorting are ignored.
func (q *Query) Matches(e *Entry) bool {
	if q == nil {
		return true
	}
	if q.CaseID != "" && e.CaseID != q.CaseID {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	if q.Assessor != "" && e.Assessor != q.Assessor {
		return false
	}
	if q.Disposition != "" && e.DispositionKind() != q.Disposition {
		return false
	}
	if q.Band != "" && e.Band() != q.Band {
		return false
	}
	if q.StartTime != nil && e.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && e.Timestamp.After(*q.EndTime) {
		return false
	}
	return true
}
