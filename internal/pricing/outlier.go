package pricing

import (
	"fmt"

	"github.com/cardscout/cardscout/internal/domain"
	"github.com/cardscout/cardscout/internal/ruleset"
)

// OutlierDetector classifies a listing's price against its comparable mean.
// Both extremes are rejectable: too cheap implies damage or counterfeit risk,
// too expensive implies no resale margin.
type OutlierDetector struct {
	rules *ruleset.Ruleset
}

// NewOutlierDetector creates an OutlierDetector over the given ruleset.
func NewOutlierDetector(rules *ruleset.Ruleset) *OutlierDetector {
	return &OutlierDetector{rules: rules}
}

// Classify bands the listing price as a percentage of the comparable mean,
// preferring tier-A comps and falling back to tier-B. Below the minimum sample
// count the verdict is insufficient data and passes by default; a listing is
// never silently rejected on thin evidence.
func (d *OutlierDetector) Classify(totalPrice float64, comps domain.ComparableSet) domain.OutlierVerdict {
	tier := comps.TierA
	if tier.Count == 0 {
		tier = comps.TierB
	}

	t := d.rules.Thresholds
	if tier.Count < t.MinCompSamples {
		return domain.OutlierVerdict{
			Band:        domain.BandInsufficient,
			SampleCount: tier.Count,
			Pass:        true,
			Reason:      fmt.Sprintf("only %d comparable(s), need %d; passing by default", tier.Count, t.MinCompSamples),
		}
	}

	pct := totalPrice / tier.Average * 100
	v := domain.OutlierVerdict{
		PctOfMean:   pct,
		SampleCount: tier.Count,
	}

	switch {
	case pct < t.RejectBelowPct:
		v.Band = domain.BandTooCheap
		v.Pass = false
		v.Reason = fmt.Sprintf("price is %.1f%% of comp mean: suspiciously cheap, likely damaged or counterfeit", pct)
	case pct < t.SweetLowPct:
		v.Band = domain.BandGood
		v.Pass = true
		v.Reason = fmt.Sprintf("price is %.1f%% of comp mean: acceptable", pct)
	case pct <= t.SweetHighPct:
		v.Band = domain.BandSweetSpot
		v.Pass = true
		v.Reason = fmt.Sprintf("price is %.1f%% of comp mean: sweet spot", pct)
	case pct <= t.RejectAbovePct:
		v.Band = domain.BandGood
		v.Pass = true
		v.Reason = fmt.Sprintf("price is %.1f%% of comp mean: acceptable", pct)
	default:
		v.Band = domain.BandTooExpensive
		v.Pass = false
		v.Reason = fmt.Sprintf("price is %.1f%% of comp mean: insufficient margin", pct)
	}
	return v
}
