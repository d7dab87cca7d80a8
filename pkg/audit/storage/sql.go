package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite" // pure Go SQLite driver, registered as "sqlite"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
)

// Supported SQL drivers.
const (
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"   // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres" // github.com/lib/pq
)

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// SQLConfig contains configuration for the SQL storage backends.
type SQLConfig struct {
	// Driver is one of sqlite3, sqlite or postgres.
	Driver string

	// Path is the database file for the SQLite drivers.
	Path string

	// DSN is the connection string for postgres.
	DSN string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for the SQLite drivers.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration SQLite waits when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLConfig returns the default SQLite configuration.
func DefaultSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:       DriverSQLite3,
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// dataSourceName builds the driver-specific connection string.
func (c *SQLConfig) dataSourceName() (string, error) {
	switch c.Driver {
	case DriverSQLite3:
		if c.Path == "" {
			return "", errors.New("path is required")
		}
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", c.Path, c.BusyTimeout.Milliseconds())
		if c.WALMode {
			dsn += "&_journal_mode=WAL"
		}
		return dsn, nil
	case DriverSQLite:
		if c.Path == "" {
			return "", errors.New("path is required")
		}
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", c.Path, c.BusyTimeout.Milliseconds())
		if c.WALMode {
			dsn += "&_pragma=journal_mode(WAL)"
		}
		return dsn, nil
	case DriverPostgres:
		if c.DSN == "" {
			return "", errors.New("dsn is required")
		}
		return c.DSN, nil
	}
	return "", fmt.Errorf("unsupported driver %q", c.Driver)
}

// entryRow is the scanned form of one audit_entries row.
type entryRow struct {
	ID          string         `db:"id"`
	CaseID      string         `db:"case_id"`
	Sequence    int64          `db:"sequence"`
	Kind        string         `db:"kind"`
	SnapshotID  sql.NullString `db:"snapshot_id"`
	Assessor    sql.NullString `db:"assessor"`
	Disposition sql.NullString `db:"disposition"`
	Band        sql.NullString `db:"band"`
	RiskTotal   sql.NullInt64  `db:"risk_total"`
	RecordedAt  int64          `db:"recorded_at_ns"`
	Payload     string         `db:"payload"`
}

// SQLStorage implements audit.Storage over database/sql via sqlx. The
// schema triggers make audit_entries append-only at the database level.
type SQLStorage struct {
	db     *sqlx.DB
	config *SQLConfig
	logger *slog.Logger
}

// NewSQLStorage opens the database and initializes the schema.
func NewSQLStorage(config *SQLConfig) (*SQLStorage, error) {
	if config == nil {
		config = DefaultSQLConfig()
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "audit.storage."+config.Driver)

	dsn, err := config.dataSourceName()
	if err != nil {
		return nil, audit.NewStorageError(config.Driver, "open", err)
	}

	db, err := sqlx.Open(config.Driver, dsn)
	if err != nil {
		return nil, audit.NewStorageError(config.Driver, "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQL audit storage initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize creates the schema and verifies its version.
func (s *SQLStorage) initialize() error {
	schema := sqliteSchema
	if s.config.Driver == DriverPostgres {
		schema = postgresSchema
	}

	if _, err := s.db.Exec(schema); err != nil {
		return audit.NewStorageError(s.config.Driver, "create_schema", err)
	}
	s.logger.Debug("database schema created")

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(s.db.Rebind(insertSchemaVersion), SchemaVersion, appliedAt); err != nil {
		return audit.NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version int
	err := s.db.Get(&version, getSchemaVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return audit.NewStorageError(s.config.Driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Append persists an entry.
func (s *SQLStorage) Append(ctx context.Context, entry *audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return audit.NewStorageError(s.config.Driver, "append", err)
	}

	var riskTotal any
	if total, ok := entry.RiskTotal(); ok {
		riskTotal = int64(total)
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(insertEntry),
		entry.ID, entry.CaseID, entry.Sequence, string(entry.Kind),
		nullString(entry.SnapshotID), nullString(entry.Assessor),
		nullString(entry.DispositionKind()), nullString(entry.Band()),
		riskTotal, entry.Timestamp.UnixNano(), string(payload),
		entry.CaseID, entry.Sequence-1,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return audit.NewStorageError(s.config.Driver, "append", fmt.Errorf("%w: %v", audit.ErrConflict, err))
		}
		return audit.NewStorageError(s.config.Driver, "append", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return audit.NewStorageError(s.config.Driver, "append", err)
	}
	if n == 0 {
		return audit.NewStorageError(s.config.Driver, "append",
			fmt.Errorf("%w: case %s is not at sequence %d", audit.ErrConflict, entry.CaseID, entry.Sequence-1))
	}
	return nil
}

// Read returns every entry for a case in sequence order.
func (s *SQLStorage) Read(ctx context.Context, caseID string) ([]*audit.Entry, error) {
	var rows []entryRow
	query := s.db.Rebind("SELECT " + entryColumns + " FROM audit_entries WHERE case_id = ? ORDER BY sequence ASC")
	if err := s.db.SelectContext(ctx, &rows, query, caseID); err != nil {
		return nil, audit.NewStorageError(s.config.Driver, "read", err)
	}
	return s.decodeRows(rows, "read")
}

// Last returns the most recent entry for a case, or nil if none.
func (s *SQLStorage) Last(ctx context.Context, caseID string) (*audit.Entry, error) {
	var row entryRow
	query := s.db.Rebind("SELECT " + entryColumns + " FROM audit_entries WHERE case_id = ? ORDER BY sequence DESC LIMIT 1")
	if err := s.db.GetContext(ctx, &row, query, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, audit.NewStorageError(s.config.Driver, "last", err)
	}
	e, err := row.decode()
	if err != nil {
		return nil, audit.NewStorageError(s.config.Driver, "last", err)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (s *SQLStorage) Get(ctx context.Context, id string) (*audit.Entry, error) {
	var row entryRow
	query := s.db.Rebind("SELECT " + entryColumns + " FROM audit_entries WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, audit.ErrNotFound
		}
		return nil, audit.NewStorageError(s.config.Driver, "get", err)
	}
	e, err := row.decode()
	if err != nil {
		return nil, audit.NewStorageError(s.config.Driver, "get", err)
	}
	return e, nil
}

// Query retrieves entries matching the query filters.
func (s *SQLStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Entry, error) {
	sqlQuery, args := s.buildSelect(query)

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, audit.NewStorageError(s.config.Driver, "query", err)
	}
	return s.decodeRows(rows, "query")
}

// QueryStream returns a channel of entries for memory-efficient streaming.
// The channels will be closed when the query completes or errors.
func (s *SQLStorage) QueryStream(ctx context.Context, query *audit.Query) (<-chan *audit.Entry, <-chan error, error) {
	entriesCh := make(chan *audit.Entry, 100) // Buffer 100 entries
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildSelect(query)

	go func() {
		defer close(entriesCh)
		defer close(errCh)

		rows, err := s.db.QueryxContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- audit.NewStorageError(s.config.Driver, "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row entryRow
			if err := rows.StructScan(&row); err != nil {
				errCh <- audit.NewStorageError(s.config.Driver, "scan", err)
				return
			}
			e, err := row.decode()
			if err != nil {
				errCh <- audit.NewStorageError(s.config.Driver, "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case entriesCh <- e:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- audit.NewStorageError(s.config.Driver, "query_stream", err)
		}
	}()

	return entriesCh, errCh, nil
}

// Count returns the number of entries matching the query filters.
func (s *SQLStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM audit_entries"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(sqlQuery), args...); err != nil {
		return 0, audit.NewStorageError(s.config.Driver, "count", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError(s.config.Driver, "close", err)
	}
	s.logger.Info("SQL audit storage closed")
	return nil
}

// buildSelect builds the rebound SELECT statement for a query.
func (s *SQLStorage) buildSelect(query *audit.Query) (string, []any) {
	if query == nil {
		query = &audit.Query{}
	}
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + entryColumns + " FROM audit_entries"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "ASC"
	if query.SortOrder == "desc" {
		order = "DESC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY recorded_at_ns %s, case_id %s, sequence %s", order, order, order)

	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	if query.Offset > 0 {
		if query.Limit <= 0 {
			// SQLite requires LIMIT before OFFSET; -1 is unbounded there.
			if s.config.Driver == DriverPostgres {
				sqlQuery += " LIMIT ALL"
			} else {
				sqlQuery += " LIMIT -1"
			}
		}
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	return s.db.Rebind(sqlQuery), args
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func buildWhereClause(query *audit.Query) (string, []any) {
	if query == nil {
		return "", nil
	}
	var conditions []string
	var args []any

	if query.CaseID != "" {
		conditions = append(conditions, "case_id = ?")
		args = append(args, query.CaseID)
	}
	if query.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(query.Kind))
	}
	if query.Assessor != "" {
		conditions = append(conditions, "assessor = ?")
		args = append(args, query.Assessor)
	}
	if query.Disposition != "" {
		conditions = append(conditions, "disposition = ?")
		args = append(args, query.Disposition)
	}
	if query.Band != "" {
		conditions = append(conditions, "band = ?")
		args = append(args, query.Band)
	}

	// Time range filter
	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at_ns >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at_ns <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func (s *SQLStorage) decodeRows(rows []entryRow, operation string) ([]*audit.Entry, error) {
	entries := make([]*audit.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].decode()
		if err != nil {
			return nil, audit.NewStorageError(s.config.Driver, operation, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decode rebuilds the entry from its stored payload.
func (r *entryRow) decode() (*audit.Entry, error) {
	var e audit.Entry
	if err := json.Unmarshal([]byte(r.Payload), &e); err != nil {
		return nil, fmt.Errorf("entry %s: %w", r.ID, err)
	}
	return &e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isConstraintViolation reports a unique or primary key violation from any
// of the supported drivers.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}
	// modernc.org/sqlite errors expose the extended result code.
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == 19 // SQLITE_CONSTRAINT
	}
	return false
}
