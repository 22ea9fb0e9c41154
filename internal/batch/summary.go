package batch

// Summary aggregates a batch run.
type Summary struct {
	Solved int     `json:"solved"`
	Failed int     `json:"failed"`
	Total  int     `json:"total"`
	Rate   float64 `json:"rate"`
}

// Summarize counts solved and errored tasks. Rate is Solved/Total, or zero
// for an empty run.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}

	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Passing():
			s.Solved++
		}
	}

	if s.Total > 0 {
		s.Rate = float64(s.Solved) / float64(s.Total)
	}

	return s
}
