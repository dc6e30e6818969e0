// Package featureflags evaluates per-user feature rollouts configured through
// FEATURE_FLAGS, e.g. "realtime=on,certificate_snapshots=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags known to the API.
const (
	// Realtime gates the websocket notification stream.
	Realtime = "realtime"
	// CertificateSnapshots gates issuing certificates for a relationship on demand.
	CertificateSnapshots = "certificate_snapshots"
)

// Defaults apply to known flags the configuration does not mention.
var Defaults = map[string]bool{
	Realtime:             true,
	CertificateSnapshots: true,
}

// rule is one parsed flag value. percent is -1 for plain on/off values.
type rule struct {
	raw     string
	enabled bool
	percent int
}

// Manager evaluates feature flags for users.
type Manager struct {
	rules    map[string]rule
	defaults map[string]bool
}

// NewManager parses a comma-separated key=value list. Malformed pairs and
// unparseable values are dropped, so the flag falls back to its default.
func NewManager(raw string, defaults map[string]bool) *Manager {
	m := &Manager{
		rules:    make(map[string]rule),
		defaults: make(map[string]bool, len(defaults)),
	}
	for name, on := range defaults {
		m.defaults[normalize(name)] = on
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			m.rules[key] = r
		}
	}
	return m
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, enabled: true, percent: -1}, true
	case "off", "false", "0":
		return rule{raw: value, percent: -1}, true
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, false
	}
	return rule{raw: value, percent: min(max(pct, 0), 100)}, true
}

// Enabled reports whether name is on for userID. Percentage rollouts bucket
// users deterministically and never include the anonymous user 0 unless the
// rollout is at 100%.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return Defaults[normalize(name)]
	}
	name = normalize(name)

	r, ok := m.rules[name]
	if !ok {
		return m.defaults[name]
	}
	switch {
	case r.percent < 0:
		return r.enabled
	case r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Raw returns the configured values keyed by flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Names lists every configured or defaulted flag in sorted order.
func (m *Manager) Names() []string {
	seen := make(map[string]struct{}, len(m.rules)+len(m.defaults))
	for k := range m.rules {
		seen[k] = struct{}{}
	}
	for k := range m.defaults {
		seen[k] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", name, userID)))
	return int(h.Sum32() % 100)
}
