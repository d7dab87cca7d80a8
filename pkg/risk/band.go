package risk

// Band is a risk classification derived from the total score.
type Band string

const (
	BandLow          Band = "Low"
	BandLowModerate  Band = "Low-Moderate"
	BandModerate     Band = "Moderate"
	BandModerateHigh Band = "Moderate-High"
	BandHigh         Band = "High"
)

// Bands lists every band from least to most restrictive.
var Bands = []Band{BandLow, BandLowModerate, BandModerate, BandModerateHigh, BandHigh}

// Score bounds.
const (
	MinTotal = 0
	MaxTotal = 25
)

// bandCeilings holds the inclusive upper total for each band, in Bands order.
var bandCeilings = []int{5, 10, 15, 20, MaxTotal}

// BandFor returns the band for a total. Out-of-range totals are clamped.
func BandFor(total int) Band {
	total = clamp(total, MinTotal, MaxTotal)
	for i, ceiling := range bandCeilings {
		if total <= ceiling {
			return Bands[i]
		}
	}
	return BandHigh
}

// Index returns the band's position in Bands, or -1 if unknown.
func (b Band) Index() int {
	for i, known := range Bands {
		if b == known {
			return i
		}
	}
	return -1
}

// Valid reports whether b is a known band.
func (b Band) Valid() bool {
	return b.Index() >= 0
}

// Shift moves the band by steps toward more (positive) or less (negative)
// restrictive, stopping at either end.
func (b Band) Shift(steps int) Band {
	idx := b.Index()
	if idx < 0 {
		return b
	}
	return Bands[clamp(idx+steps, 0, len(Bands)-1)]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
