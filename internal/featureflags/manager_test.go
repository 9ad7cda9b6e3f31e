package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(PublicSignup))
	assert.True(t, m.Enabled(Realtime))
	assert.False(t, m.Enabled("unknown"))
	assert.Equal(t, []string{PublicSignup, Realtime}, m.Names())
}

func TestNewManager_Overrides(t *testing.T) {
	m := NewManager(" Public_Signup = OFF , realtime=true,broken,=on,empty=")
	assert.False(t, m.Enabled(PublicSignup))
	assert.True(t, m.Enabled(Realtime))
	assert.NotContains(t, m.Names(), "broken")
	assert.NotContains(t, m.Names(), "empty")
}

func TestEnabledFor_Rollout(t *testing.T) {
	m := NewManager("beta=50%,all=100%,none=0%,junk=abc%")

	assert.True(t, m.EnabledFor("all", 0))
	assert.False(t, m.EnabledFor("none", 7))
	assert.False(t, m.EnabledFor("junk", 7))
	assert.False(t, m.EnabledFor("beta", 0), "anonymous users are outside partial rollouts")
	assert.False(t, m.Enabled("beta"))

	var on int
	for id := uint(1); id <= 1000; id++ {
		if m.EnabledFor("beta", id) {
			on++
		}
		assert.Equal(t, m.EnabledFor("beta", id), m.EnabledFor("beta", id))
	}
	assert.InDelta(t, 500, on, 100)
}

func TestSnapshot(t *testing.T) {
	m := NewManager("realtime=off")
	assert.Equal(t, map[string]bool{PublicSignup: true, Realtime: false}, m.Snapshot(1))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(Realtime))
}
