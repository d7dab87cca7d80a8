// Package archive copies aged audit entries into timestamped files on a
// cron schedule.
//
// Archiving is a copy, not a move: the audit trail is append-only and no
// entry is ever removed from storage. A watermark file in the archive
// directory records the newest archived timestamp so each run picks up
// where the last one stopped.
package archive
