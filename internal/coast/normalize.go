package coast

import (
	"math"

	"github.com/rotisserie/eris"
)

// Normalize rescales values into [0,1] by min-max and raises the result
// to the given power exponent. The argmin maps to 0 and the argmax to 1
// for any non-degenerate input.
//
// Degenerate domain policy: when min == max every value normalizes to 0.
// The historical behavior was inconsistent here and risked division by
// zero; a constant 0 keeps every downstream consumer (category
// assignment, similarity rescale) well defined. An empty input has no
// min/max at all and is a computation error.
func Normalize(values []float64, exponent float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, eris.Wrap(ErrComputation, "normalize empty value array")
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(values))
	if min == max {
		return out, nil
	}

	span := max - min
	for i, v := range values {
		n := math.Pow((v-min)/span, exponent)
		out[i] = clamp01(n)
	}
	return out, nil
}

// rescale maps a single value through the min-max power scale used by
// Normalize, with an externally supplied domain.
func rescale(v, min, max, exponent float64) float64 {
	if min == max {
		return 0
	}
	return clamp01(math.Pow((v-min)/(max-min), exponent))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
