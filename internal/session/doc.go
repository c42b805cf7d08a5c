// Package session implements the command/response layer between the dashboard and the bot backend.
//
// # Connection Manager
//
// [Manager] owns one persistent connection. [Manager.Connect] dials, fires every hook registered with
// [Manager.OnConnect], then reads frames until the connection drops, after which it redials with exponential backoff.
// "Connected" is a recurring event: hooks fire once per successful (re)connection, so any state fetch belongs in a hook,
// not in startup code. Hooks and handlers are registered once and survive reconnects.
//
// A dial failure never ends the loop. State transitions ([StateConnecting], [StateOpen], [StateClosed]) are reported
// through [Manager.OnStateChange] so renderers can show a degraded status.
//
// # Command Dispatcher
//
// [Dispatcher.Send] writes one [Command] with at-most-once semantics: no request id, no retry, no queue. A command sent
// while the connection is down fails with [shared.ErrNotConnected] and is dropped.
//
// [Dispatcher.On] registers one handler per event name; the last registration wins. Frames are routed on the manager's
// read goroutine, strictly in arrival order. Malformed frames and unknown names are logged and dropped, and a
// panicking handler is recovered, so one bad frame never ends the session.
//
// # Wire Format
//
// Commands and events are JSON text frames:
//
//	{"name": "SAVE_PLAYLIST", "payload": {"name": "Chill", "data": {"http://a": "Song A"}}}
//	{"name": "HEARTBEAT", "payload": {"webOK": true, "botOK": "online"}}
package session
