package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTenant(t *testing.T) {
	assert := assert.New(t)

	tn, err := ParseTenant("Group 27 Bot")
	assert.NoError(err)
	assert.Equal(27, tn.Number)
	assert.Equal("group-27", tn.Name())
	assert.Equal("group-27-mod", tn.ModChannelName())

	tn, err = ParseTenant("the group 3 bot (staging)")
	assert.NoError(err)
	assert.Equal(3, tn.Number)

	for _, name := range []string{"", "Warden", "Group Bot", "Group 27Bot", "Group x Bot"} {
		_, err := ParseTenant(name)
		assert.ErrorIs(err, ErrTenantNotFound, name)
	}
}

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	good := Config{BotUserID: "u-bot", Tenant: Tenant{Number: 4}, ModChannelID: "c-mod"}
	assert.NoError(good.Validate())

	noMod := good
	noMod.ModChannelID = ""
	err := noMod.Validate()
	assert.ErrorIs(err, ErrModChannelMissing)
	assert.Contains(err.Error(), "group-4-mod")

	noTenant := good
	noTenant.Tenant = Tenant{}
	assert.ErrorIs(noTenant.Validate(), ErrTenantNotFound)

	noBot := good
	noBot.BotUserID = ""
	assert.Error(noBot.Validate())
}
