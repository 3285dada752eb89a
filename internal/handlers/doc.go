// Package handlers provides the HTTP side of the web display surface.
//
// It includes handlers for:
//   - The kiosk page and the display state it polls
//   - Composite slide images
//   - The play journal
//   - Health checks and build information
package handlers
