package domain

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Message types sent by the server.
const (
	MessageReservationCreated   = "RESERVATION_CREATED"
	MessageReservationApproved  = "RESERVATION_APPROVED"
	MessageReservationRejected  = "RESERVATION_REJECTED"
	MessageReservationCancelled = "RESERVATION_CANCELLED"
	MessageReservationCompleted = "RESERVATION_COMPLETED"
	MessageSystem               = "SYSTEM"
)

var messageTypeLabels = map[string]string{
	MessageReservationCreated:   "reservation created",
	MessageReservationApproved:  "reservation approved",
	MessageReservationRejected:  "reservation rejected",
	MessageReservationCancelled: "reservation cancelled",
	MessageReservationCompleted: "reservation completed",
	MessageSystem:               "system notice",
}

// MessageTypeLabel returns a readable label for a message type.
func MessageTypeLabel(t string) string {
	if l, ok := messageTypeLabels[t]; ok {
		return l
	}
	return "notice"
}

// Priority levels. Batch sends use PriorityHigh.
const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// Message is an in-app message.
type Message struct {
	ID            int64  `json:"id"`
	SenderID      int64  `json:"senderId,omitempty"`
	ReceiverID    int64  `json:"receiverId"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Type          string `json:"messageType"`
	Priority      int    `json:"priority"`
	Read          bool   `json:"isRead"`
	ReservationID int64  `json:"reservationId,omitempty"`
	CreatedAt     Time   `json:"createdAt"`
}

// UnmarshalJSON accepts "type" for "messageType" and "read"/readStatus for "isRead".
func (m *Message) UnmarshalJSON(b []byte) error {
	type plain Message
	var w struct {
		plain
		Kind       string `json:"type"`
		ReadFlag   *bool  `json:"read"`
		ReadStatus *int   `json:"readStatus"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = Message(w.plain)
	if m.Type == "" {
		m.Type = w.Kind
	}
	if w.ReadFlag != nil {
		m.Read = m.Read || *w.ReadFlag
	}
	if w.ReadStatus != nil {
		m.Read = m.Read || *w.ReadStatus == 1
	}
	return nil
}

// SendMessageRequest is the payload for system and user messages.
type SendMessageRequest struct {
	ReceiverID  int64  `json:"receiverId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"messageType,omitempty"`
	Priority    int    `json:"priority"`
}

// BatchMessage fans one title/content out to many receivers.
type BatchMessage struct {
	Title       string  `validate:"required,max=200"`
	Content     string  `validate:"required"`
	ReceiverIDs []int64 `validate:"required,min=1"`
}

// UnreadBadge renders an unread count as a badge; zero renders empty and
// anything above 99 renders "99+".
func UnreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	default:
		return strconv.Itoa(n)
	}
}
