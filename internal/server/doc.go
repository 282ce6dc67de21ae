// Package server implements the HTTP and WebSocket front end of the room
// chat relay.
//
// The Hub tracks live connections and starts their pumps. Each Client runs a
// reader that turns protocol frames into channel.Manager calls and a writer
// that drains the client's subscriber queue onto the socket. The two never
// wait on each other, so a stalled socket cannot hold up a room.
package server
