package audit

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound indicates an entry id does not exist.
	ErrNotFound = errors.New("audit entry not found")

	// ErrConflict indicates an entry already exists at the same position.
	ErrConflict = errors.New("audit entry conflict")

	// ErrClosed indicates the storage backend was closed.
	ErrClosed = errors.New("audit storage closed")

	// ErrSnapshotConflict indicates a snapshot id was reused for different facts.
	ErrSnapshotConflict = errors.New("snapshot id reused with different facts")
)

// SnapshotConflictError rejects a decision whose snapshot id already
// names a different set of facts in the same case.
type SnapshotConflictError struct {
	CaseID     string
	SnapshotID string

	// EntryID is the earlier decision that scored the other facts.
	EntryID string
}

// Error implements the error interface.
func (e *SnapshotConflictError) Error() string {
	return fmt.Sprintf("snapshot %s of case %s was already evaluated with different facts (entry %s)",
		e.SnapshotID, e.CaseID, e.EntryID)
}

// Unwrap returns ErrSnapshotConflict.
func (e *SnapshotConflictError) Unwrap() error {
	return ErrSnapshotConflict
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend ("memory", "sqlite3", "sqlite", "postgres")
	Operation string // Operation that failed ("append", "read", "query", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// QueryError represents an invalid query.
type QueryError struct {
	Query *Query
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{
		Query: query,
		Cause: cause,
	}
}

// RecordError represents a rejected entry.
type RecordError struct {
	CaseID string
	Cause  error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.CaseID != "" {
		return fmt.Sprintf("record error [case_id=%s]: %v", e.CaseID, e.Cause)
	}
	return fmt.Sprintf("record error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecordError) Unwrap() error {
	return e.Cause
}

// NewRecordError creates a new RecordError.
func NewRecordError(caseID string, cause error) *RecordError {
	return &RecordError{
		CaseID: caseID,
		Cause:  cause,
	}
}

// IntegrityError reports a break in a case's hash chain or ordering.
type IntegrityError struct {
	CaseID   string
	EntryID  string
	Sequence int64
	Reason   string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("audit integrity error [case_id=%s, entry_id=%s, sequence=%d]: %s",
		e.CaseID, e.EntryID, e.Sequence, e.Reason)
}

// ExportError represents an error during export.
type ExportError struct {
	Format     string
	EntryCount int
	Cause      error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, entry_count=%d]: %v", e.Format, e.EntryCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, entryCount int, cause error) *ExportError {
	return &ExportError{
		Format:     format,
		EntryCount: entryCount,
		Cause:      cause,
	}
}

// ArchiveError represents an error during a scheduled archive run.
type ArchiveError struct {
	Directory string
	Cause     error
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive error [directory=%s]: %v", e.Directory, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// NewArchiveError creates a new ArchiveError.
func NewArchiveError(directory string, cause error) *ArchiveError {
	return &ArchiveError{
		Directory: directory,
		Cause:     cause,
	}
}
