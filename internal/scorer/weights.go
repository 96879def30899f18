package scorer

import "github.com/miespacioubb/miespacio/internal/config"

// Neutral is the score used when a dimension has no signal.
const Neutral = 0.5

type Weights struct {
	Academic    float64
	Performance float64
	Method      float64
	Quality     float64
	Temporal    float64
}

var DefaultWeights = Weights{
	Academic:    0.35,
	Performance: 0.25,
	Method:      0.20,
	Quality:     0.15,
	Temporal:    0.05,
}

func WeightsFromConfig(c config.WeightsConfig) Weights {
	return Weights{
		Academic:    c.Academic,
		Performance: c.Performance,
		Method:      c.Method,
		Quality:     c.Quality,
		Temporal:    c.Temporal,
	}
}

func (w Weights) Sum() float64 {
	return w.Academic + w.Performance + w.Method + w.Quality + w.Temporal
}
