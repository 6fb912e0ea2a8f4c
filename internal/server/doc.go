// Package server implements the MCP (Model Context Protocol) server for the
// pixel art tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load an image and report its size, format and transparency
//   - pixel_art_detect_mesh: Detect the logical pixel grid
//   - pixel_art_mesh_overlay: Render the detected grid over the source
//   - pixel_art_pixelate: Run the full pipeline and return the pixel art
//
// Numeric arguments use 0 for "disabled" or "default", matching the
// pixelate.Config zero values.
//
// # Image Caching
//
// Decoded source images are cached by path for the lifetime of the process,
// so detecting a mesh and then pixelating with several palette sizes decodes
// the file once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
