// Package models defines the domain types shared by the dashboard session, the edit model and local persistence.
//
// The package contains two categories of types:
//
// 1. Server-owned data, cached client-side and replaced wholesale on every fetch
//   - [Playlist] : track URL to display title
//   - [PlaylistCollection] : playlist name to [Playlist], with the reserved [AmbienceName] singleton
//   - [BotStatus] : tagged Offline / Booting / Online state, normalized by [ParseBotStatus]
//
// 2. Client-owned data, never sent unless the user saves explicitly
//   - [Mode] : which collection the editor is working on
//   - [Theme] : a named color preset, persisted locally under [ThemePreferenceKey]
//   - [Preference] : persisted key/value setting
//   - [SaveRecord] : journal entry for an outbound save and its acknowledgment
//
// Persistent entities implement the [Model] interface.
package models
