// Package middleware provides the gin middleware shared by every route:
// CORS for the browser client and token-bucket rate limiting per client IP.
package middleware
