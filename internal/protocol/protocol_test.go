package protocol

import "testing"

// TestParse covers every command form plus the frames that must be ignored.
func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		frame  string
		want   Command
		wantOK bool
	}{
		{
			name:   "create room",
			frame:  "CREATE_ROOM:lobby",
			want:   Command{Kind: CreateRoom, Room: "lobby"},
			wantOK: true,
		},
		{
			name:   "join room keeps whole remainder",
			frame:  "JOIN_ROOM:team:alpha",
			want:   Command{Kind: JoinRoom, Room: "team:alpha"},
			wantOK: true,
		},
		{
			name:   "leave room",
			frame:  "LEAVE_ROOM:lobby",
			want:   Command{Kind: LeaveRoom, Room: "lobby"},
			wantOK: true,
		},
		{
			name:   "room message",
			frame:  "ROOM_MSG:lobby:alice:hello",
			want:   Command{Kind: RoomMessage, Room: "lobby", Sender: "alice", Content: "hello"},
			wantOK: true,
		},
		{
			name:   "room message content with colons",
			frame:  "ROOM_MSG:lobby:alice:time is 12:30:00",
			want:   Command{Kind: RoomMessage, Room: "lobby", Sender: "alice", Content: "time is 12:30:00"},
			wantOK: true,
		},
		{
			name:   "room message with empty content",
			frame:  "ROOM_MSG:lobby:alice:",
			want:   Command{Kind: RoomMessage, Room: "lobby", Sender: "alice", Content: ""},
			wantOK: true,
		},
		{name: "room message missing fields", frame: "ROOM_MSG:onlyroom"},
		{name: "room message missing content", frame: "ROOM_MSG:lobby:alice"},
		{name: "room message empty room", frame: "ROOM_MSG::alice:hi"},
		{name: "empty create", frame: "CREATE_ROOM:"},
		{name: "empty join", frame: "JOIN_ROOM:"},
		{name: "empty leave", frame: "LEAVE_ROOM:"},
		{name: "lowercase prefix", frame: "join_room:lobby"},
		{name: "unknown command", frame: "HELLO"},
		{name: "empty frame", frame: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.frame)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.frame, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestRoomList(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{names: nil, want: "ROOM_LIST:"},
		{names: []string{"lobby"}, want: "ROOM_LIST:lobby"},
		{names: []string{"a", "b", "c"}, want: "ROOM_LIST:a,b,c"},
	}

	for _, tt := range tests {
		if got := RoomList(tt.names); got != tt.want {
			t.Errorf("RoomList(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := RoomMessage.String(); got != "room_msg" {
		t.Errorf("RoomMessage.String() = %q", got)
	}
	if got := Kind(0).String(); got != "unknown" {
		t.Errorf("Kind(0).String() = %q", got)
	}
}
