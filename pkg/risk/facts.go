package risk

import "github.com/Texasdada13/juvenile-justice-langgraph/pkg/predicate"

var scoreFields = map[string]func(s Score) any{
	"score.total":      func(s Score) any { return s.Total },
	"score.band":       func(s Score) any { return string(s.Band) },
	"score.band_index": func(s Score) any { return s.Band.Index() },
	"score.category_a": func(s Score) any { return s.Offense },
	"score.category_b": func(s Score) any { return s.History },
	"score.category_c": func(s Score) any { return s.Supervision },
	"score.category_d": func(s Score) any { return s.FTA },
	"score.category_e": func(s Score) any { return s.Living },
}

// KnownField reports whether name is a score fact field.
func KnownField(name string) bool {
	_, ok := scoreFields[name]
	return ok
}

// Facts returns a predicate.Facts view over the score.
func (s Score) Facts() predicate.Facts {
	return scoreFacts(s)
}

type scoreFacts Score

// Lookup implements predicate.Facts.
func (f scoreFacts) Lookup(field string) (any, error) {
	fn, ok := scoreFields[field]
	if !ok {
		return nil, &predicate.UnknownFieldError{Field: field}
	}
	return fn(Score(f)), nil
}
