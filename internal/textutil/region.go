package textutil

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultRegions is the region list used when none is configured.
var DefaultRegions = []string{
	"Andhra Pradesh", "Assam", "Bihar", "Delhi", "Goa", "Gujarat", "Haryana",
	"Karnataka", "Kerala", "Madhya Pradesh", "Maharashtra", "Odisha", "Punjab",
	"Rajasthan", "TamilNadu", "Telangana", "Uttar Pradesh", "West Bengal",
}

// RegionMatcher recognizes fragments that name a known state or region.
// Comparison ignores case and internal spaces. With a threshold below 1 the
// matcher also accepts near misses scored by Jaro-Winkler similarity.
type RegionMatcher struct {
	names     []string
	keys      []string
	threshold float64
	metric    *metrics.JaroWinkler
}

// NewRegionMatcher builds a matcher. A threshold outside (0,1) disables fuzzy
// matching.
func NewRegionMatcher(names []string, threshold float64) *RegionMatcher {
	if len(names) == 0 {
		names = DefaultRegions
	}
	m := &RegionMatcher{threshold: threshold}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := regionKey(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		m.names = append(m.names, name)
		m.keys = append(m.keys, key)
	}
	if threshold > 0 && threshold < 1 {
		m.metric = metrics.NewJaroWinkler()
		m.metric.CaseSensitive = false
	}
	return m
}

// Match returns the canonical region name for text.
func (m *RegionMatcher) Match(text string) (string, bool) {
	if m == nil {
		return "", false
	}
	key := regionKey(text)
	if key == "" {
		return "", false
	}
	for i, candidate := range m.keys {
		if candidate == key {
			return m.names[i], true
		}
	}
	if m.metric == nil {
		return "", false
	}
	best, bestScore := -1, 0.0
	for i, candidate := range m.keys {
		score := strutil.Similarity(key, candidate, m.metric)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= m.threshold {
		return m.names[best], true
	}
	return "", false
}

// Names returns the configured region names.
func (m *RegionMatcher) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

func regionKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), ""))
}
