// Package server implements the real-time coordination layer of the chat relay.
//
// The implementation is organized into specialized files: the Hub keeps the
// session directory and conversation rooms, Client owns one websocket and its
// pumps, and Presence, Dispatcher, Reactions, Deletions and Typing handle
// inbound events.
// Relay wires them together per connection and serves the HTTP routes.
package server
