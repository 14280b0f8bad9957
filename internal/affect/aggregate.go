package affect

import (
	"github.com/affectlab/affectlab-server/internal/errors"
)

// Aggregate holds the arithmetic means of the numeric fields over all rows sharing Key.
type Aggregate struct {
	Key               string
	Count             int
	Valence           float64
	Arousal           float64
	NormalizedValence float64
	NormalizedArousal float64
}

type sums struct {
	count                    int
	valence, arousal         float64
	normValence, normArousal float64
}

// AggregateByGroup averages rows partitioned by exact equality on Group.
// Output is in first-seen order.
func AggregateByGroup(rows []ProcessedRow) ([]Aggregate, error) {
	return aggregateBy(rows, func(r ProcessedRow) string { return r.Group })
}

// AggregateByPost averages rows partitioned by exact equality on Post.
// Output is in first-seen order.
func AggregateByPost(rows []ProcessedRow) ([]Aggregate, error) {
	return aggregateBy(rows, func(r ProcessedRow) string { return r.Post })
}

func aggregateBy(rows []ProcessedRow, key func(ProcessedRow) string) ([]Aggregate, error) {
	order := make([]string, 0)
	partitions := make(map[string]*sums)

	for _, r := range rows {
		k := key(r)
		s, ok := partitions[k]
		if !ok {
			s = &sums{}
			partitions[k] = s
			order = append(order, k)
		}
		s.count++
		s.valence += r.Valence
		s.arousal += r.Arousal
		s.normValence += r.NormalizedValence
		s.normArousal += r.NormalizedArousal
	}

	out := make([]Aggregate, 0, len(order))
	for _, k := range order {
		s := partitions[k]
		if s.count == 0 {
			return nil, errors.EmptyAggregatef("no rows for key %q", k)
		}
		n := float64(s.count)
		out = append(out, Aggregate{
			Key:               k,
			Count:             s.count,
			Valence:           s.valence / n,
			Arousal:           s.arousal / n,
			NormalizedValence: s.normValence / n,
			NormalizedArousal: s.normArousal / n,
		})
	}
	return out, nil
}

// Mean returns the arithmetic mean of xs.
// An empty input is an EmptyAggregate error rather than NaN.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.EmptyAggregatef("mean of empty partition")
	}
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs)), nil
}
