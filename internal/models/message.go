package models

import (
	"time"
)

type Message struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	Sender     *User     `json:"sender,omitempty"`
	Receiver   *User     `json:"receiver,omitempty"`
}

// Involves reports whether the message was exchanged between a and b, in
// either direction.
func (m *Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Counterpart returns the participant that is not userID.
func (m *Message) Counterpart(userID string) (string, *User) {
	if m.SenderID == userID {
		return m.ReceiverID, m.Receiver
	}
	return m.SenderID, m.Sender
}

type ThreadKey struct {
	ListingID     string `json:"listing_id"`
	CounterpartID string `json:"counterpart_id"`
}

type ChatRoom struct {
	ListingID   string   `json:"listing_id"`
	OtherUser   *User    `json:"other_user"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

func (c ChatRoom) Key() ThreadKey {
	key := ThreadKey{ListingID: c.ListingID}
	if c.OtherUser != nil {
		key.CounterpartID = c.OtherUser.ID
	}
	return key
}

// FeedEvent is the insert notification published for every new message row.
// Subscribers receive only the ids and fetch the full row themselves.
type FeedEvent struct {
	MessageID string `json:"id"`
	ListingID string `json:"listing_id"`
}
