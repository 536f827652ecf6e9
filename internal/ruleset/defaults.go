package ruleset

import "github.com/cardscout/cardscout/internal/domain"

// Defaults returns the built-in ruleset. A TOML file loaded on top of this
// replaces whole sections; operators who override a keyword table own the
// entire table.
func Defaults() Ruleset {
	return Ruleset{
		Version: "1",
		Keywords: Keywords{
			Lot: Rule{
				Deny: []string{
					"lot of", "card lot", "lot)", "bundle", "complete set",
					"full set", "team set", "mixed lot", "collection of",
					"bulk", "mystery pack", "grab bag",
				},
			},
			Sealed: Rule{
				Allow: []string{
					"box topper", "pack fresh", "factory sealed single",
					"from sealed", "box loader",
				},
				Deny: []string{
					"sealed box", "hobby box", "blaster box", "booster box",
					"sealed pack", "booster pack", "hobby pack", "sealed case",
					"wax box", "wax pack", "unopened",
				},
			},
			Reprint: Rule{
				Deny: []string{
					"reprint", "reproduction", "novelty", "facsimile",
					"copy card", "replica",
				},
			},
			Custom: Rule{
				Deny: []string{
					"custom", "fan made", "fan-made", "aceo", "art card",
					"homemade", "hand made", "handmade",
				},
			},
			Sticker: Rule{
				Allow: []string{"sticker auto"},
				Deny:  []string{"sticker", "decal"},
			},
			NonCard: Rule{
				Allow: []string{
					"photo variation", "memorabilia card", "photo match",
				},
				Deny: []string{
					"poster", "magazine", "framed", "photo print", "photograph",
					"8x10", "plaque", "figurine", "bobblehead", "pennant",
				},
			},
			Base: Rule{
				Allow: []string{"base set auto"},
				Deny:  []string{"base card", " base "},
			},
			GradedMarkers: []string{
				"psa ", "psa-", "bgs ", "sgc ", "cgc ", "csg ", "hga ",
				"graded", "gem mint 10", "slab",
			},
			Damage: []string{
				"crease", "creased", "tear", "torn", "stain", "stained",
				"scratch", "scratched", "water damage", "writing on",
				"bent", "hole", "ripped", "paper loss",
			},
			HardReject: []string{
				"as-is", "as is, no returns", "poor condition", "damaged",
				"heavily played", "filler", "low grade", "authentic only",
				"psa 1", "psa 2", "psa 3",
			},
			GoodCentering: []string{
				"well centered", "great centering", "perfectly centered",
				"good centering", "centered",
			},
			BadCentering: []string{
				"off center", "off-center", "oc ", "miscut", "centering issue",
			},
			GoodCorners: []string{
				"sharp corners", "clean corners", "crisp corners",
				"corners are sharp",
			},
			BadCorners: []string{
				"soft corners", "corner wear", "dinged corner", "fuzzy corners",
				"rounded corners",
			},
			Mint: []string{
				"mint", "near mint", "nm-mt", "nm/mt", "gem mint", "pristine",
				"pack fresh", "pack to sleeve",
			},
			PhotoLanguage: []string{
				"front and back", "all corners", "see photos", "see pictures",
				"more photos", "additional photos", "close up", "close-up",
			},
			ScamTerms: []string{
				"checklist", "reprint", "similar to", "not the actual card",
				"digital card", "photo of", "read description", "placeholder",
			},
			TitleNoise: []string{
				"mint", "near mint", "nm", "gem", "pristine", "hot", "rare",
				"invest", "fire", "look", "wow", "sharp", "clean", "beautiful",
				"gorgeous", "centered", "pack fresh", "free shipping",
			},
		},
		CardTypes: []TypeGroup{
			{Canonical: "refractor", Synonyms: []string{"refractor", "xfractor", "x-fractor", "atomic refractor"}},
			{Canonical: "auto", Synonyms: []string{"auto", "autograph", "autographed", "signed", "signature"}},
			{Canonical: "patch", Synonyms: []string{"patch", "jersey", "relic", "memorabilia", "game used", "game-used"}},
			{Canonical: "rookie", Synonyms: []string{"rookie", "rc"}},
			{Canonical: "numbered", Synonyms: []string{"numbered", "serial", "/25", "/50", "/99", "/100"}},
			{Canonical: "parallel", Synonyms: []string{"parallel", "insert", "holo", "foil", "sp", "short print"}},
		},
		Brands: []string{
			"topps", "bowman", "panini", "prizm", "fleer", "donruss",
			"upper", "deck", "select", "mosaic", "optic", "chrome", "leaf",
			"score", "hoops", "skybox", "stadium", "finest", "heritage",
		},
		Surnames: []string{
			"jordan", "lebron", "doncic", "curry", "brady", "mahomes",
			"trout", "ohtani", "jeter", "griffey", "mantle", "gretzky",
			"kobe", "giannis", "wembanyama", "brees", "montana", "rice",
			"soto", "acuna", "tatis", "morant", "luka",
		},
		Thresholds: Thresholds{
			CompCorrection: 0.85,
			GradingFee:     25.0,
			TierBFraction:  0.40,
			EVTierAWeight:  0.40,
			EVTierBWeight:  0.40,
			MinCompSamples: 3,
			MaxCompSamples: 5,

			RejectBelowPct: 40,
			SweetLowPct:    50,
			SweetHighPct:   70,
			RejectAbovePct: 80,

			MaxListingAgeDays:   21,
			AuctionDurationDays: 7,

			ScamPriceFloorPct:  10,
			ScamMinFeedbackPct: 90,
			ScamMinCount:       10,

			SellerTiers: []SellerTier{
				{MinFeedbackPct: 99.0, MinCount: 1000, Points: 10},
				{MinFeedbackPct: 98.0, MinCount: 500, Points: 8},
				{MinFeedbackPct: 97.0, MinCount: 100, Points: 6},
				{MinFeedbackPct: 95.0, MinCount: 50, Points: 4},
				{MinFeedbackPct: 90.0, MinCount: 10, Points: 2},
			},

			MaxAtomicSearches: 40,
			AlertMinScore:     8.0,
		},
		Weights: domain.ScoreWeights{
			Seller:    0.20,
			Condition: 0.25,
			Relevance: 0.40,
			Freshness: 0.15,
		},
	}
}
