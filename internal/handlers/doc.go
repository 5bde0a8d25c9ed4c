// Package handlers provides HTTP request handlers for the playlist widget API.
//
// It includes handlers for:
//   - Creating, inspecting and tearing down playlist layouts
//   - Rendering a layout's list as an HTML fragment
//   - Visitor selections and inbound player status messages
//   - Raw and cached playlist feeds
//   - Health checks and version information
package handlers
