// Package tasks runs long library jobs with progress reporting.
//
// # Operations
//
//  1. [Engine.BulkExport] : writes every song (or a chosen subset) in one export format
//     - A worker pool renders songs through the formatter package
//     - Each export carries the song's resolved chord sheet
//     - A songs.csv listing and an export_manifest.json summarise the run
//
//  2. [Engine.ImportDir] : creates songs from the *.txt tab files in a directory
//     - Title and artist come from a "Title - Artist" first line
//     - Otherwise from the tags of an audio file with the same base name
//     - Otherwise from the file name, with an unknown artist
//
// # Progress Reporting
//
// Operations accept a send-only [ProgressUpdate] channel, which may be nil.
// Sends use select with default so a slow consumer never stalls a job.
package tasks
