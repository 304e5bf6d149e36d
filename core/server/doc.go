// Package server holds configuration for the HTTP server.
//
// The server itself is assembled in cmd/start from Fiber, the middleware stack,
// and the feature loader; this package only carries the listen port and the
// API key that protects every route except the health check.
package server
