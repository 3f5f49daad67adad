// Package tokenstore persists the Netatmo OAuth token record.
//
// Two backends implement netatmo.TokenStore:
//
//   - FileStore keeps the record as a JSON document. Writes go to a temporary
//     file in the same directory which is fsynced and renamed over the target,
//     so readers never observe a partial write. A weighted semaphore
//     serializes access within the process.
//   - SQLiteStore keeps the record in a single-row table. SQLite locking makes
//     it safe to share between processes.
//
// Both backends treat an unreadable record as absent: Load logs a warning and
// returns (nil, nil), which sends the user back through the OAuth flow.
package tokenstore
