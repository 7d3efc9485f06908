// Package app bootstraps and runs the vatfiler server.
//
// The bootstrap follows a two-phase pattern:
//
//  1. NewApplication loads configuration (config.yaml, .env and the
//     environment), initializes logging and builds every service.
//  2. Run starts the token file watcher and the HTTP server, then blocks
//     until the context is cancelled or SIGINT/SIGTERM arrives.
//
// # Services
//
// InitializeServices wires the components in dependency order:
//
//   - token store and provider (internal/oauth), with the refresh exchanger
//   - the authorization flow and its callback handler
//   - the fraud-prevention header builder and device identifier
//   - the receipt log (internal/receipts)
//   - the VAT API client (internal/hmrc)
//   - the router (internal/api) behind the HTTP server (internal/server)
//
// Everything is held in a Services value so tests can reach individual
// components without a running listener.
package app
