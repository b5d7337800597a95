package flow

import (
	"context"
	"fmt"
	"regexp"
)

// MessageLink addresses one message as community / channel / message.
type MessageLink struct {
	CommunityID string
	ChannelID   string
	MessageID   string
}

func (l MessageLink) String() string {
	return fmt.Sprintf("/%s/%s/%s", l.CommunityID, l.ChannelID, l.MessageID)
}

var linkRegex = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)`)

// ParseMessageLink finds the first message link anywhere in text, eg a pasted "https://chat.example/channels/1/2/3".
func ParseMessageLink(text string) (MessageLink, bool) {
	m := linkRegex.FindStringSubmatch(text)
	if m == nil {
		return MessageLink{}, false
	}
	return MessageLink{CommunityID: m[1], ChannelID: m[2], MessageID: m[3]}, true
}

type ResolveStatus int

const (
	Found ResolveStatus = iota
	CommunityNotFound
	ChannelNotFound
	MessageNotFound
)

// ResolvedMessage is the content of a message at the time it was looked up.
type ResolvedMessage struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Content     string
	Attachments []string
}

// Resolution is the result of looking up a MessageLink. Message is only meaningful when Status is Found.
type Resolution struct {
	Status  ResolveStatus
	Message ResolvedMessage
}

// Resolver looks up linked messages. Not-found outcomes are reported through Resolution.Status; errors are reserved
// for transport failures.
type Resolver interface {
	ResolveMessage(ctx context.Context, link MessageLink) (Resolution, error)
}
