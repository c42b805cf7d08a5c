// Package tasks runs long playlist operations off the UI thread with progress reporting.
//
// # Bulk Export
//
// [Engine.BulkExport] writes every playlist of a [models.PlaylistCollection] to its own file:
//
//   - A producer queues one job per playlist, paced by a rate limiter
//   - A bounded pool of workers renders each job through the formatter package
//   - Results are collected, sorted by name and summarized in export_manifest.json
//
// A failed playlist does not stop the others. It is reported in the result and the manifest.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate].
// Sends use select with default so a slow reader never blocks the export.
package tasks
