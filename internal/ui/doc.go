// Package ui implements the interactive terminal viewer using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [SongListView] : browse, filter and delete saved songs
//  2. [ViewerView] : read a tab with auto-scroll and chord diagrams on demand
//  3. [SearchView] : ask the generative search for candidates and save one explicitly
//
// All data flows through a [Session], a view-model over the REST client. Session operations run inside
// commands and report back with a message, so a failed request only shows up in the status line.
//
// Auto-scroll timers fire through the program's Send, which means the controller advances inside Update
// and never races the renderer.
//
// Keyboard navigation uses vim-style list bindings plus space/r/+/-/c in the viewer, with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
