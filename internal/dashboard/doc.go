// Package dashboard wires the session layer to the local state it keeps.
//
// # Event Handling
//
// [New] registers every inbound handler and one connect hook exactly once. Because the connection manager treats
// "connected" as a recurring event, the hook re-fetches the bot status and the collection for the current mode after
// every reconnect. Replies that arrive for a mode the store has since left are logged and dropped.
//
// # Actions
//
// User actions ([Dashboard.Save], [Dashboard.SwitchMode], [Dashboard.StartBot] and friends) validate against local
// state first and only then send a command. Nothing waits for a reply: acknowledgments arrive later as events.
// Bot controls are gated by the current status affordances and by a token-bucket limiter.
//
// # Updates
//
// [Dashboard.Updates] is a buffered, non-blocking stream of [Update] values. A full buffer drops the update, so
// renderers must treat updates as "something changed" and re-read [Dashboard.View] and [Dashboard.Status].
//
// # Save Journal
//
// The optional [SaveRecorder] interface persists a record of every save that was sent and acknowledged
// (repositories.SaveHistoryRepository). Recording is silent: journal errors are logged and never fail a save.
package dashboard
