// Package channel implements the room registry and broadcast engine shared by
// every connection of the chat relay.
//
// The Manager owns all Room state. Connections only hold a Subscriber, whose
// bounded queue the Manager writes into; they never touch rooms directly.
package channel

import (
	"fmt"
	"time"
)

const historyClock = "15:04:05"

// Message is one chat line accepted by a room.
type Message struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

// Live formats the message as it is fanned out to current members.
func (m Message) Live() string {
	return fmt.Sprintf("%s: %s", m.Sender, m.Content)
}

// Replay formats the message as it is sent to a member joining later.
func (m Message) Replay() string {
	return fmt.Sprintf("%s [%s]: %s", m.Sender, m.Timestamp.UTC().Format(historyClock), m.Content)
}
