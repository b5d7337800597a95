package flow

import (
	"context"
	"sync"
)

// MemResolver is an in-memory Resolver for tests and local development.
type MemResolver struct {
	lk          sync.RWMutex
	communities map[string]map[string]map[string]ResolvedMessage
	// when set, every lookup fails with this error
	Err error
}

var _ Resolver = (*MemResolver)(nil)

func NewMemResolver() *MemResolver {
	return &MemResolver{
		communities: make(map[string]map[string]map[string]ResolvedMessage),
	}
}

// AddChannel registers an empty channel (and its community).
func (r *MemResolver) AddChannel(communityID, channelID string) {
	r.lk.Lock()
	defer r.lk.Unlock()
	channels, ok := r.communities[communityID]
	if !ok {
		channels = make(map[string]map[string]ResolvedMessage)
		r.communities[communityID] = channels
	}
	if _, ok := channels[channelID]; !ok {
		channels[channelID] = make(map[string]ResolvedMessage)
	}
}

func (r *MemResolver) AddMessage(communityID, channelID string, msg ResolvedMessage) {
	r.AddChannel(communityID, channelID)
	r.lk.Lock()
	defer r.lk.Unlock()
	r.communities[communityID][channelID][msg.ID] = msg
}

func (r *MemResolver) ResolveMessage(ctx context.Context, link MessageLink) (Resolution, error) {
	if r.Err != nil {
		return Resolution{}, r.Err
	}
	r.lk.RLock()
	defer r.lk.RUnlock()
	channels, ok := r.communities[link.CommunityID]
	if !ok {
		return Resolution{Status: CommunityNotFound}, nil
	}
	msgs, ok := channels[link.ChannelID]
	if !ok {
		return Resolution{Status: ChannelNotFound}, nil
	}
	msg, ok := msgs[link.MessageID]
	if !ok {
		return Resolution{Status: MessageNotFound}, nil
	}
	return Resolution{Status: Found, Message: msg}, nil
}
