// Package services implements the HTTP clients that sit beside the websocket session.
//
// # API Client
//
// [APIService] performs raw JSON requests against the backend's HTTP side and returns an [APIResponse] with the
// status, headers, body and (when the body parses) the decoded JSON.
//
// # Authentication Gate
//
// [AuthService] is consulted before any session activity starts. It posts the configured shared key to
// /auth_check and interprets the {"ok": bool} reply.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : no key configured
//   - [shared.ErrServiceUnavailable] : the request could not be completed
//   - [shared.ErrAuthFailed] : the backend answered with a non-2xx status
package services
