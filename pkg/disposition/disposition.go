// Package disposition defines the ordered set of recommended case dispositions.
package disposition

// Kind is a recommended handling of a case, ordered by restrictiveness.
type Kind string

const (
	Release                Kind = "release"
	ReleaseWithConditions  Kind = "release_with_conditions"
	AlternativeToDetention Kind = "alternative_to_detention"
	DetentionRecommended   Kind = "detention_recommended"
)

// Kinds lists every disposition from least to most restrictive.
var Kinds = []Kind{Release, ReleaseWithConditions, AlternativeToDetention, DetentionRecommended}

// Restrictiveness returns the kind's position in Kinds, or -1 if unknown.
func (k Kind) Restrictiveness() int {
	for i, known := range Kinds {
		if k == known {
			return i
		}
	}
	return -1
}

// Valid reports whether k is a known disposition.
func (k Kind) Valid() bool {
	return k.Restrictiveness() >= 0
}

// Max returns the more restrictive of a and b.
func Max(a, b Kind) Kind {
	if b.Restrictiveness() > a.Restrictiveness() {
		return b
	}
	return a
}

// Min returns the less restrictive of a and b.
func Min(a, b Kind) Kind {
	if b.Restrictiveness() < a.Restrictiveness() {
		return b
	}
	return a
}
