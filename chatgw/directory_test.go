package chatgw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLoadFile(t *testing.T) {
	assert := assert.New(t)
	d := NewDirectory()
	require.NoError(t, d.LoadFileJSON("testdata/directory.json"))

	assert.True(d.HasCommunity("100"))
	assert.True(d.HasCommunity("900"))
	assert.False(d.HasCommunity("101"))

	name, ok := d.ChannelName("100", "250")
	assert.True(ok)
	assert.Equal("group-7-mod", name)
	_, ok = d.ChannelName("900", "250")
	assert.False(ok)

	cid, chid, ok := d.FindChannelByName("group-7-mod")
	assert.True(ok)
	assert.Equal("100", cid)
	assert.Equal("250", chid)

	_, _, ok = d.FindChannelByName("group-8-mod")
	assert.False(ok)
}

func TestDirectoryLoadFileErrors(t *testing.T) {
	d := NewDirectory()
	assert.Error(t, d.LoadFileJSON("testdata/does-not-exist.json"))

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"communities": [{"channels": []}]}`), 0644))
	assert.Error(t, d.LoadFileJSON(p))

	require.NoError(t, os.WriteFile(p, []byte(`not json`), 0644))
	assert.Error(t, d.LoadFileJSON(p))
}

func TestDirectoryFindIsDeterministic(t *testing.T) {
	assert := assert.New(t)
	d := NewDirectory()
	d.SetChannel("b", "9", "group-3")
	d.SetChannel("a", "5", "group-3")
	d.SetChannel("a", "2", "group-3")

	cid, chid, ok := d.FindChannelByName("group-3")
	assert.True(ok)
	assert.Equal("a", cid)
	assert.Equal("2", chid)

	// renames replace the old name
	d.SetChannel("a", "2", "general")
	_, chid, _ = d.FindChannelByName("group-3")
	assert.Equal("5", chid)
}
