package chatgw

import (
	"time"

	"github.com/bluesky-social/warden/dispatch"
)

// Message is the wire form of an inbound chat message, as posted by the chat platform bridge.
type Message struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id,omitempty"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *Message) DispatchMessage() dispatch.Message {
	return dispatch.Message{
		ID:          m.ID,
		CommunityID: m.CommunityID,
		ChannelID:   m.ChannelID,
		ChannelName: m.ChannelName,
		AuthorID:    m.AuthorID,
		AuthorName:  m.AuthorName,
		Content:     m.Content,
		Attachments: append([]string(nil), m.Attachments...),
		Timestamp:   m.Timestamp,
	}
}

// OutboundMessage is one line of bot output, in global send order.
type OutboundMessage struct {
	Seq       uint64    `json:"seq"`
	ChannelID string    `json:"channel_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
