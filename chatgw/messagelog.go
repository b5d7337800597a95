package chatgw

import (
	"time"

	"github.com/bluesky-social/warden/flow"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MessageLog remembers recent community messages so that message links in reports can be resolved. It is bounded both
// in size and age; older messages resolve as not found.
type MessageLog struct {
	msgs *expirable.LRU[string, Message]
}

func NewMessageLog(size int, ttl time.Duration) *MessageLog {
	return &MessageLog{
		msgs: expirable.NewLRU[string, Message](size, nil, ttl),
	}
}

func messageLogKey(communityID, channelID, messageID string) string {
	return flow.MessageLink{CommunityID: communityID, ChannelID: channelID, MessageID: messageID}.String()
}

// Record stores a community message. Direct messages and messages without an ID are ignored.
func (l *MessageLog) Record(msg Message) {
	if msg.CommunityID == "" || msg.ID == "" {
		return
	}
	l.msgs.Add(messageLogKey(msg.CommunityID, msg.ChannelID, msg.ID), msg)
}

func (l *MessageLog) Lookup(link flow.MessageLink) (Message, bool) {
	return l.msgs.Get(messageLogKey(link.CommunityID, link.ChannelID, link.MessageID))
}

func (l *MessageLog) Len() int {
	return l.msgs.Len()
}
