package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// sqliteSchema creates the audit tables for both SQLite drivers. The
// triggers reject every UPDATE and DELETE on audit_entries.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    case_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    kind TEXT NOT NULL,
    snapshot_id TEXT,
    assessor TEXT,
    disposition TEXT,
    band TEXT,
    risk_total INTEGER,
    recorded_at_ns INTEGER NOT NULL,
    payload TEXT NOT NULL,
    UNIQUE (case_id, sequence)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_recorded_at ON audit_entries(recorded_at_ns);
CREATE INDEX IF NOT EXISTS idx_audit_entries_assessor ON audit_entries(assessor);
CREATE INDEX IF NOT EXISTS idx_audit_entries_disposition ON audit_entries(disposition);

CREATE TRIGGER IF NOT EXISTS audit_entries_no_update
BEFORE UPDATE ON audit_entries
BEGIN
    SELECT RAISE(ABORT, 'audit entries are append-only');
END;

CREATE TRIGGER IF NOT EXISTS audit_entries_no_delete
BEFORE DELETE ON audit_entries
BEGIN
    SELECT RAISE(ABORT, 'audit entries are append-only');
END;
`

// postgresSchema creates the audit tables for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    case_id TEXT NOT NULL,
    sequence BIGINT NOT NULL,
    kind TEXT NOT NULL,
    snapshot_id TEXT,
    assessor TEXT,
    disposition TEXT,
    band TEXT,
    risk_total BIGINT,
    recorded_at_ns BIGINT NOT NULL,
    payload TEXT NOT NULL,
    UNIQUE (case_id, sequence)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_recorded_at ON audit_entries(recorded_at_ns);
CREATE INDEX IF NOT EXISTS idx_audit_entries_assessor ON audit_entries(assessor);
CREATE INDEX IF NOT EXISTS idx_audit_entries_disposition ON audit_entries(disposition);

CREATE OR REPLACE FUNCTION audit_entries_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'audit entries are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS audit_entries_no_modify ON audit_entries;
CREATE TRIGGER audit_entries_no_modify
BEFORE UPDATE OR DELETE ON audit_entries
FOR EACH ROW EXECUTE FUNCTION audit_entries_append_only();
`

// insertSchemaVersion records the schema version once.
const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT (version) DO NOTHING
`

// getSchemaVersion retrieves the current schema version from the database.
const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1
`

// entryColumns lists the stored columns in scan order.
const entryColumns = `id, case_id, sequence, kind, snapshot_id, assessor, disposition, band, risk_total, recorded_at_ns, payload`

// insertEntry appends a row only when the case's current last sequence is
// exactly one below the new row's. Zero rows affected means a conflict.
const insertEntry = `
INSERT INTO audit_entries (` + entryColumns + `)
SELECT CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS BIGINT), CAST(? AS TEXT), CAST(? AS TEXT),
       CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS BIGINT), CAST(? AS BIGINT), CAST(? AS TEXT)
WHERE COALESCE((SELECT MAX(sequence) FROM audit_entries WHERE case_id = ?), 0) = ?
`
