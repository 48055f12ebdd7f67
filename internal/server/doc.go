// Package server provides the web status page for a snapshot run.
//
// The server is a display surface: the watch loop presents each frame into
// it and browsers poll the latest one. It also fires pipeline actions on
// behalf of the page and exposes the verbose logging toggles.
//
// # Endpoints
//
//   - GET / - Serve the embedded status page
//   - GET /api/status - Latest frame as JSON
//   - POST /api/actions/{name} - Start an action shown on the page, returns its run id
//   - POST /api/console/{on|off} - Switch verbose logging
//   - POST /auth - Password authentication, returns session token
//
// # Authentication
//
// When a password hash is configured, the action and console endpoints
// require a bearer token. Clients POST their password to /auth and receive
// a token for the Authorization header. Login attempts are rate limited
// per client IP.
package server
