// Package server exposes the chat assistant over WebSocket.
//
// Clients connect to /ws and exchange JSON frames. Each inbound frame
// carries one user message; the server replies with one frame per
// message, either {"message": "..."} on success or {"error": "..."}
// when the assistant could not produce a reply. A connection owns
// exactly one conversation session, created on upgrade and discarded
// on disconnect.
//
// The package also provides Kubernetes-style health endpoints and a
// dedicated Prometheus metrics server kept off the chat port.
package server
