package fog

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Distribution describes how a scalar fog parameter is drawn.
type Distribution struct {
	Dist    string    `json:"dist" jsonschema:"enum=constant,enum=uniform,enum=normal,enum=lognormal,enum=choice,description=Distribution kind."`
	Value   float64   `json:"value,omitempty" jsonschema:"description=(constant) The fixed value."`
	Min     float64   `json:"min,omitempty" jsonschema:"description=(uniform) Lower bound; also clamps normal draws."`
	Max     float64   `json:"max,omitempty" jsonschema:"description=(uniform) Upper bound; also clamps normal draws."`
	Mean    float64   `json:"mean,omitempty" jsonschema:"description=(normal) Mean; (lognormal) median of the result."`
	Std     float64   `json:"std,omitempty" jsonschema:"description=(normal) Standard deviation."`
	Sigma   float64   `json:"sigma,omitempty" jsonschema:"description=(lognormal) Sigma of the underlying normal."`
	Values  []float64 `json:"values,omitempty" jsonschema:"description=(choice) Candidate values."`
	Weights []float64 `json:"weights,omitempty" jsonschema:"description=(choice) Optional weights, same length as values."`
}

func (d *Distribution) check() error {
	switch d.Dist {
	case "constant", "uniform", "normal", "lognormal":
	case "choice":
		if len(d.Values) == 0 {
			return fmt.Errorf("choice distribution needs at least one value")
		}
		if len(d.Weights) > 0 && len(d.Weights) != len(d.Values) {
			return fmt.Errorf("choice distribution has %d weights for %d values", len(d.Weights), len(d.Values))
		}
	default:
		return fmt.Errorf("unknown distribution %q", d.Dist)
	}
	return nil
}

// Sample draws one value from the distribution.
func (d *Distribution) Sample(rng *rand.Rand) float64 {
	switch d.Dist {
	case "constant":
		return d.Value
	case "uniform":
		return d.Min + (d.Max-d.Min)*rng.Float64()
	case "normal":
		v := rng.NormFloat64()*d.Std + d.Mean
		if d.Max > d.Min {
			v = math.Max(d.Min, math.Min(d.Max, v))
		}
		return v
	case "lognormal":
		// Mean is the median of the result, so values stay in
		// interpretable units (meters, for visibility).
		return d.Mean * math.Exp(rng.NormFloat64()*d.Sigma)
	case "choice":
		return d.Values[weightedIndex(rng, d.Weights, len(d.Values))]
	default:
		return 0
	}
}

// weightedIndex picks an index in [0,n); uniform when weights is empty.
func weightedIndex(rng *rand.Rand, weights []float64, n int) int {
	if len(weights) == 0 {
		return rng.Intn(n)
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return n - 1
}

// pickModel selects a fog model according to the config's selection
// strategy. With a single model and no selection block, that model wins.
func (c *Config) pickModel(rng *rand.Rand) (string, Model) {
	if c.Selection == nil || c.Selection.Mode == "fixed" {
		var name string
		if c.Selection != nil {
			name = c.Selection.Model
		} else {
			for n := range c.Models {
				name = n
			}
		}
		return name, c.Models[name]
	}

	names := make([]string, 0, len(c.Selection.Weights))
	weights := make([]float64, 0, len(c.Selection.Weights))
	for _, name := range sortedKeys(c.Selection.Weights) {
		names = append(names, name)
		weights = append(weights, c.Selection.Weights[name])
	}
	name := names[weightedIndex(rng, weights, len(names))]
	return name, c.Models[name]
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
