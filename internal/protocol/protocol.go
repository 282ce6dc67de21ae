// Package protocol parses the relay's line-oriented text commands and builds
// the frames the server sends back.
package protocol

import "strings"

// Command prefixes accepted from clients.
const (
	PrefixCreateRoom = "CREATE_ROOM:"
	PrefixJoinRoom   = "JOIN_ROOM:"
	PrefixLeaveRoom  = "LEAVE_ROOM:"
	PrefixRoomMsg    = "ROOM_MSG:"

	// PrefixRoomList starts the frame sent to every client on connect.
	PrefixRoomList = "ROOM_LIST:"
)

// Kind identifies a parsed command.
type Kind int

const (
	CreateRoom Kind = iota + 1
	JoinRoom
	LeaveRoom
	RoomMessage
)

func (k Kind) String() string {
	switch k {
	case CreateRoom:
		return "create_room"
	case JoinRoom:
		return "join_room"
	case LeaveRoom:
		return "leave_room"
	case RoomMessage:
		return "room_msg"
	default:
		return "unknown"
	}
}

// Command is one client instruction. Sender and Content are only set for
// RoomMessage.
type Command struct {
	Kind    Kind
	Room    string
	Sender  string
	Content string
}

// Parse decodes a text frame. It returns false for anything that is not a
// well-formed command: unknown prefixes, an empty room name, or a ROOM_MSG
// with fewer than three fields. Room commands take the whole remainder as
// the name; ROOM_MSG splits on the first two colons only, so content may
// contain colons.
func Parse(frame string) (Command, bool) {
	switch {
	case strings.HasPrefix(frame, PrefixCreateRoom):
		return roomCommand(CreateRoom, frame[len(PrefixCreateRoom):])
	case strings.HasPrefix(frame, PrefixJoinRoom):
		return roomCommand(JoinRoom, frame[len(PrefixJoinRoom):])
	case strings.HasPrefix(frame, PrefixLeaveRoom):
		return roomCommand(LeaveRoom, frame[len(PrefixLeaveRoom):])
	case strings.HasPrefix(frame, PrefixRoomMsg):
		fields := strings.SplitN(frame[len(PrefixRoomMsg):], ":", 3)
		if len(fields) < 3 || fields[0] == "" {
			return Command{}, false
		}
		return Command{Kind: RoomMessage, Room: fields[0], Sender: fields[1], Content: fields[2]}, true
	default:
		return Command{}, false
	}
}

func roomCommand(kind Kind, name string) (Command, bool) {
	if name == "" {
		return Command{}, false
	}
	return Command{Kind: kind, Room: name}, true
}

// RoomList formats the discovery frame sent on connect.
func RoomList(names []string) string {
	return PrefixRoomList + strings.Join(names, ",")
}
