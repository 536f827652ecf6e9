package domain

// YearRange is an inclusive range of card years detected in a search phrase.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Years expands the range into the inclusive list of years.
func (r YearRange) Years() []int {
	if r.Start == 0 || r.End < r.Start {
		return nil
	}
	out := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		out = append(out, y)
	}
	return out
}

// QueryPlan is the decomposition of one free-text search phrase into atomic
// search strings. The number of Searches always equals
// max(1,players) x max(1,years) x max(1,types); when no dimension is
// multi-valued the single atomic search is the original phrase unchanged.
type QueryPlan struct {
	Phrase      string     `json:"phrase"`
	Players     []string   `json:"players,omitempty"`
	Years       *YearRange `json:"years,omitempty"`
	CardTypes   []string   `json:"card_types,omitempty"` // canonical keywords, ordered, de-duplicated
	Searches    []string   `json:"searches"`
	Explanation string     `json:"explanation"`
}
