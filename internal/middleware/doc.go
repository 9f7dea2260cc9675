// Package middleware provides HTTP middleware for the DLNA server.
//
// It includes:
//   - Request logging in W3C Extended Log Format, including the Range header
//   - Prometheus request metrics, with streaming routes timed to first byte
//   - gzip compression of XML and JSON responses
//
// Every wrapper implements Unwrap so the streaming writer can still set
// per-write deadlines through http.ResponseController.
package middleware
