// Package ui implements the interactive terminal dashboard using bubbletea's Elm architecture.
//
// The TUI has three tabs, cycled with tab and shift+tab:
//  1. [StatusView] : Web and bot status with the bot controls that are currently available
//  2. [EditorView] : Playlist and track editing for the music or ambience collection
//  3. [SetupView] : Theme preset selection and the bot's channel ids
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the [Msg] union type.
// Dashboard updates flow through a channel and are re-armed after each delivery, so the model always renders
// the latest store and status state rather than the update payloads themselves.
package ui
