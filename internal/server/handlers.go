// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, the room listing, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// WebSocketHandler upgrades the request, queues the room list as the first
// frame, and hands the connection to the hub, which starts its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	sub := channel.NewSubscriber(s.cfg.QueueSize, s.policy)
	if err := sub.Send(protocol.RoomList(s.manager.ListRoomNames())); err != nil {
		s.log.Warn("could not queue room list", zap.Error(err))
	}

	client := s.newClient(conn, sub, r.RemoteAddr)
	if !s.hub.Register(client) {
		sub.Close()
		client.closeConnection()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomchat server is running!")
}

type roomSummary struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type roomsResponse struct {
	Rooms []roomSummary `json:"rooms"`
}

// RoomsHandler returns a JSON snapshot of every room and its member count.
func (s *Server) RoomsHandler(w http.ResponseWriter, _ *http.Request) {
	names := s.manager.ListRoomNames()
	resp := roomsResponse{Rooms: make([]roomSummary, 0, len(names))}
	for _, name := range names {
		members := s.manager.Members(name)
		if members < 0 {
			continue
		}
		resp.Rooms = append(resp.Rooms, roomSummary{Name: name, Members: members})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("error writing rooms response", zap.Error(err))
	}
}

// TestPageHandler serves an HTML page that speaks the room protocol, for
// poking at a running server from a browser.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		s.log.Warn("error writing HTML response", zap.Error(err))
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>roomchat WebSocket Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>roomchat WebSocket Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="nameInput" placeholder="Your name">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div>
        <input type="text" id="roomInput" placeholder="Room" disabled>
        <button class="room" onclick="roomCommand('CREATE_ROOM')" disabled>Create</button>
        <button class="room" onclick="roomCommand('JOIN_ROOM')" disabled>Join</button>
        <button class="room" onclick="roomCommand('LEAVE_ROOM')" disabled>Leave</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        let currentRoom = '';
        const messagesDiv = document.getElementById('messages');
        const nameInput = document.getElementById('nameInput');
        const roomInput = document.getElementById('roomInput');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(message, color) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.style.color = color || 'gray';
            el.textContent = message;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            roomInput.disabled = !connected;
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            document.querySelectorAll('button.room').forEach(b => b.disabled = !connected);
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => { addMessage('Connected'); updateStatus(true); };
            ws.onmessage = (event) => {
                if (event.data.startsWith('ROOM_LIST:')) {
                    addMessage('Rooms: ' + (event.data.slice(10) || '(none)'));
                    return;
                }
                addMessage(event.data, 'green');
            };
            ws.onclose = () => { addMessage('Connection closed'); updateStatus(false); ws = null; currentRoom = ''; };
            ws.onerror = () => { addMessage('Connection error'); updateStatus(false); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function roomCommand(cmd) {
            const room = roomInput.value.trim();
            if (!room || !ws) {
                return;
            }
            ws.send(cmd + ':' + room);
            currentRoom = cmd === 'LEAVE_ROOM' ? '' : room;
            addMessage(cmd + ' ' + room);
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            const name = nameInput.value.trim() || 'anonymous';
            if (message && currentRoom && ws && ws.readyState === WebSocket.OPEN) {
                ws.send('ROOM_MSG:' + currentRoom + ':' + name + ':' + message);
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
