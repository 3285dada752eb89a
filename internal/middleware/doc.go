// Package middleware provides HTTP middleware for the web display surface.
//
// It includes:
//   - An access log in W3C Extended Log Format that tags each request with
//     its kind and, for composite images, the slide id; kiosk polling and
//     health checks can be filtered out
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression of the kiosk page and state JSON
package middleware
