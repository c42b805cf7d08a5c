// Package repositories implements SQLite persistence for client-owned data.
//
// Nothing here is shared with the backend: playlists and bot status are server-owned caches and are never
// written to disk.
//
// Key Implementations:
//   - [PreferenceRepository] : key/value settings such as the theme preset and last edit mode
//   - [SaveHistoryRepository] : journal of sent saves and their acknowledgments
//   - [SaveRecorder] : adapts [SaveHistoryRepository] to the dashboard's optional save journal
package repositories
