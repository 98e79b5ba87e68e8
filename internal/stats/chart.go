package stats

import "sort"

// ChartPoint is one slice or bar of a chart.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ToChart reshapes counts into points. Keys listed in order come first, in
// that order; remaining keys follow alphabetically. Excluded keys are dropped.
func ToChart(counts map[string]int, order []string, exclude ...string) []ChartPoint {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	out := make([]ChartPoint, 0, len(counts))
	placed := make(map[string]bool, len(order))
	for _, k := range order {
		v, ok := counts[k]
		if !ok || skip[k] || placed[k] {
			continue
		}
		placed[k] = true
		out = append(out, ChartPoint{Name: k, Value: float64(v)})
	}

	rest := make([]string, 0, len(counts))
	for k := range counts {
		if !placed[k] && !skip[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, ChartPoint{Name: k, Value: float64(counts[k])})
	}
	return out
}

// coverageChart plots vaccine coverage rates in schedule order.
func coverageChart(cov map[string]Coverage, order []string) []ChartPoint {
	out := make([]ChartPoint, 0, len(order))
	for _, code := range order {
		if c, ok := cov[code]; ok {
			out = append(out, ChartPoint{Name: code, Value: c.Rate})
		}
	}
	return out
}

func completionChart(c ANCCompletion) []ChartPoint {
	b := c.Buckets()
	out := make([]ChartPoint, len(b))
	for i, n := range b {
		out[i] = ChartPoint{Name: ancCompletionKeys[i], Value: float64(n)}
	}
	return out
}
