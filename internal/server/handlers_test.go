package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testhelpers"
)

// TestHealthHandler tests the health check endpoint.
// It verifies that the handler returns a 200 status code with the expected
// plain text body.
func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	server.HealthHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "roomchat server is running!" {
		t.Errorf("body = %q", got)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q", ct)
	}
}

// TestRoutes tests the router end to end.
// It verifies status codes and content types for every HTTP route.
func TestRoutes(t *testing.T) {
	env := startTestServer(t, nil)

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		contentType string
	}{
		{name: "health", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, contentType: "text/plain"},
		{name: "rooms", method: http.MethodGet, path: "/rooms", wantStatus: http.StatusOK, contentType: "application/json"},
		{name: "test page", method: http.MethodGet, path: "/test", wantStatus: http.StatusOK, contentType: "text/html"},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, contentType: "text/plain"},
		{name: "websocket rejects POST", method: http.MethodPost, path: "/ws", wantStatus: http.StatusMethodNotAllowed},
		{name: "plain GET on websocket", method: http.MethodGet, path: "/ws", wantStatus: http.StatusBadRequest},
		{name: "health rejects POST", method: http.MethodPost, path: "/", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testhelpers.MakeRequest(t, tt.method, env.http.URL+tt.path)
			defer func() { _ = resp.Body.Close() }()

			testhelpers.AssertStatusCode(t, resp, tt.wantStatus)
			if tt.contentType != "" {
				testhelpers.AssertContentType(t, resp, tt.contentType)
			}
		})
	}
}

// TestRoomsHandler tests the room listing endpoint.
// It verifies that rooms are listed by name with their member counts.
func TestRoomsHandler(t *testing.T) {
	env := startTestServer(t, nil)

	env.manager.EnsureRoom("b")
	env.manager.EnsureRoom("a")
	env.manager.Join("a", channel.NewSubscriber(4, channel.DropOldest))
	env.manager.Join("a", channel.NewSubscriber(4, channel.DropOldest))

	resp := testhelpers.MakeRequest(t, http.MethodGet, env.http.URL+"/rooms")
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Rooms []struct {
			Name    string `json:"name"`
			Members int    `json:"members"`
		} `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(body.Rooms) != 2 {
		t.Fatalf("rooms = %+v, want 2 entries", body.Rooms)
	}
	if body.Rooms[0].Name != "a" || body.Rooms[0].Members != 2 {
		t.Errorf("rooms[0] = %+v, want a/2", body.Rooms[0])
	}
	if body.Rooms[1].Name != "b" || body.Rooms[1].Members != 0 {
		t.Errorf("rooms[1] = %+v, want b/0", body.Rooms[1])
	}
}

func TestRoomsHandlerEmpty(t *testing.T) {
	env := startTestServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, env.http.URL+"/rooms")
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != `{"rooms":[]}` {
		t.Errorf("body = %s, want {\"rooms\":[]}", got)
	}
}

// TestMetricsEndpoint tests that relay collectors are exposed on /metrics.
func TestMetricsEndpoint(t *testing.T) {
	env := startTestServer(t, nil)
	env.manager.EnsureRoom("lobby")

	resp := testhelpers.MakeRequest(t, http.MethodGet, env.http.URL+"/metrics")
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"chat_rooms 1", "chat_active_connections 0", "chat_frames_ignored_total 0"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// TestTestPageSpeaksRoomProtocol tests that the built-in page uses the room commands.
func TestTestPageSpeaksRoomProtocol(t *testing.T) {
	env := startTestServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, env.http.URL+"/test")
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"CREATE_ROOM", "JOIN_ROOM", "LEAVE_ROOM", "ROOM_MSG:", "ROOM_LIST:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("test page missing %q", want)
		}
	}
}
