// Package middleware provides HTTP middleware for the playlist widget server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics keyed by route template
//   - Response compression (brotli preferred, gzip fallback)
package middleware
