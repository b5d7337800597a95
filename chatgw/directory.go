package chatgw

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Directory tracks the communities the bot is a member of and the names of their channels.
type Directory struct {
	lk          sync.RWMutex
	communities map[string]map[string]string
}

type directoryFile struct {
	Communities []struct {
		ID       string `json:"id"`
		Channels []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"channels"`
	} `json:"communities"`
}

func NewDirectory() *Directory {
	return &Directory{
		communities: make(map[string]map[string]string),
	}
}

// LoadFileJSON merges communities and channels from a JSON file into the directory.
func (d *Directory) LoadFileJSON(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var df directoryFile
	if err := json.Unmarshal(b, &df); err != nil {
		return fmt.Errorf("parsing directory file %s: %w", path, err)
	}
	for _, c := range df.Communities {
		if c.ID == "" {
			return fmt.Errorf("directory file %s: community without id", path)
		}
		d.AddCommunity(c.ID)
		for _, ch := range c.Channels {
			d.SetChannel(c.ID, ch.ID, ch.Name)
		}
	}
	return nil
}

func (d *Directory) AddCommunity(communityID string) {
	d.lk.Lock()
	defer d.lk.Unlock()
	if _, ok := d.communities[communityID]; !ok {
		d.communities[communityID] = make(map[string]string)
	}
}

// SetChannel registers (or renames) a channel, adding its community if needed.
func (d *Directory) SetChannel(communityID, channelID, name string) {
	d.lk.Lock()
	defer d.lk.Unlock()
	channels, ok := d.communities[communityID]
	if !ok {
		channels = make(map[string]string)
		d.communities[communityID] = channels
	}
	channels[channelID] = name
}

func (d *Directory) HasCommunity(communityID string) bool {
	d.lk.RLock()
	defer d.lk.RUnlock()
	_, ok := d.communities[communityID]
	return ok
}

func (d *Directory) ChannelName(communityID, channelID string) (string, bool) {
	d.lk.RLock()
	defer d.lk.RUnlock()
	channels, ok := d.communities[communityID]
	if !ok {
		return "", false
	}
	name, ok := channels[channelID]
	return name, ok
}

// FindChannelByName returns the first channel with an exact name match, ordering by community then channel ID.
func (d *Directory) FindChannelByName(name string) (communityID, channelID string, ok bool) {
	d.lk.RLock()
	defer d.lk.RUnlock()

	cids := make([]string, 0, len(d.communities))
	for cid := range d.communities {
		cids = append(cids, cid)
	}
	sort.Strings(cids)
	for _, cid := range cids {
		var matches []string
		for chid, n := range d.communities[cid] {
			if n == name {
				matches = append(matches, chid)
			}
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return cid, matches[0], true
		}
	}
	return "", "", false
}
