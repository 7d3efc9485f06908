// Package server runs the local vatfiler HTTP listener.
//
// Server owns the http.Server lifecycle: it applies the standard timeouts,
// wraps the router with request logging, notifies systemd when it is ready
// or stopping, and shuts down gracefully when its context is cancelled.
//
// RateLimiter throttles the authorization routes per client IP so a
// misbehaving browser tab cannot hammer the token endpoint through the
// callback.
package server
