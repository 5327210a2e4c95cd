package classifier

import (
	"bizcard/internal/config"
	"bizcard/internal/textutil"
)

// FromConfig builds a classifier from the [classifier] config section.
func FromConfig(cfg config.Classifier) *Classifier {
	return New(Options{
		StrictEmail:     cfg.StrictEmail,
		StrictAmbiguity: cfg.StrictAmbiguity,
		Regions:         textutil.NewRegionMatcher(cfg.RegionNames, cfg.RegionSimilarity),
	})
}
