package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrTenantNotFound    = errors.New(`group number not found in bot name; name format should be "Group # Bot"`)
	ErrModChannelMissing = errors.New("moderator channel not found")
)

const DefaultSessionTTL = 24 * time.Hour

var botNameRegex = regexp.MustCompile(`[gG]roup (\d+) [bB]ot`)

// Tenant is the group this bot moderates, derived from the bot's display name.
type Tenant struct {
	Number int
}

// ParseTenant extracts the group number from a bot name like "Group 27 Bot".
func ParseTenant(botName string) (Tenant, error) {
	m := botNameRegex.FindStringSubmatch(botName)
	if m == nil {
		return Tenant{}, ErrTenantNotFound
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Tenant{}, fmt.Errorf("%w: %v", ErrTenantNotFound, err)
	}
	return Tenant{Number: n}, nil
}

// Name is the monitored channel name, eg "group-27".
func (t Tenant) Name() string {
	return fmt.Sprintf("group-%d", t.Number)
}

// ModChannelName is the moderator channel name, eg "group-27-mod".
func (t Tenant) ModChannelName() string {
	return t.Name() + "-mod"
}

type Config struct {
	BotUserID    string
	Tenant       Tenant
	ModChannelID string
	// intake sessions idle for longer than this are reaped
	SessionTTL time.Duration
}

// Validate checks startup preconditions. A failure here is fatal.
func (c Config) Validate() error {
	if c.BotUserID == "" {
		return errors.New("bot user ID is required")
	}
	if c.Tenant.Number <= 0 {
		return ErrTenantNotFound
	}
	if c.ModChannelID == "" {
		return fmt.Errorf("%w: expected a channel named %q", ErrModChannelMissing, c.Tenant.ModChannelName())
	}
	return nil
}
