// Package server provides HTTP routing, middleware, and a development backend that speaks the dashboard protocol.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Development Backend
//
// [Backend] is a [Handler] serving the websocket endpoint /ws. It keeps the playlists, the ambience singleton, the
// bot status and the bot setup in memory and answers every command with the matching reply event. START_BOT and
// REBOOT_BOT move the simulated bot through "booting" before it comes online after a delay, and a heartbeat is
// broadcast to every client on a fixed interval.
//
// When an auth key is configured, websocket handshakes without a matching X-Auth-Key header are refused with 401,
// and POST /auth_check answers {"ok": bool} for a submitted key.
//
// GET /health reports the client count and bot status; GET /metrics exposes Prometheus gauges and counters for
// connected clients, received commands and the simulated bot status.
//
// Initial content can come from a YAML or JSON [Seed] file, and [WatchSeed] reloads it on every write.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
