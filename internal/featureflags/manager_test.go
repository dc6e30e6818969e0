package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0", nil)

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,over=150%", nil)

	assert.True(t, m.Enabled("always", 1))
	assert.True(t, m.Enabled("always", 0), "a full rollout includes everyone")
	assert.True(t, m.Enabled("over", 7), "percentages are clamped to 100")
	assert.False(t, m.Enabled("never", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "partial rollout excludes user 0")
}

func TestEnabled_PartialRolloutSplitsUsers(t *testing.T) {
	m := NewManager("canary=50%", nil)

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			on++
		}
	}
	assert.InDelta(t, 500, on, 100)
}

func TestDefaults(t *testing.T) {
	m := NewManager("certificate_snapshots=off,realtime=bogus", Defaults)

	assert.False(t, m.Enabled(CertificateSnapshots, 1), "configuration overrides the default")
	assert.True(t, m.Enabled(Realtime, 1), "unparseable value falls back to the default")
	assert.False(t, m.Enabled("unknown", 1))

	var nilManager *Manager
	assert.True(t, nilManager.Enabled(Realtime, 1))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off ", map[string]bool{"extra": true})

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
	assert.Equal(t, []string{"extra", "x", "y", "z"}, m.Names())

	snap := m.Snapshot(123)
	assert.Len(t, snap, 4)
	assert.True(t, snap["extra"])
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}
