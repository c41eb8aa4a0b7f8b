package booster

import (
	"io"
	"math"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v2"

	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/objective"
	"github.com/tarstars/forust/pkg/errors"
)

// Params collect the hyperparameters of a booster.
type Params struct {
	Objective     string   `json:"objective_type" yaml:"objective_type"`
	Iterations    int      `json:"iterations" yaml:"iterations"`
	LearningRate  float64  `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth      int      `json:"max_depth" yaml:"max_depth"`
	MaxLeaves     int      `json:"max_leaves" yaml:"max_leaves"` // 0 means unbounded
	L2            float64  `json:"l2" yaml:"l2"`
	Gamma         float64  `json:"gamma" yaml:"gamma"`
	MinLeafWeight float64  `json:"min_leaf_weight" yaml:"min_leaf_weight"`
	BaseScore     *float64 `json:"base_score,omitempty" yaml:"base_score,omitempty"` // nil computes it from the targets
	NBins         int      `json:"nbins" yaml:"nbins"`
	Parallel      bool     `json:"parallel" yaml:"parallel"`
	NumThreads    int      `json:"num_threads" yaml:"num_threads"` // 0 means runtime.NumCPU()
}

// DefaultParams returns the default configuration.
func DefaultParams() Params {
	return Params{
		Objective:     objective.LogLossName,
		Iterations:    10,
		LearningRate:  0.3,
		MaxDepth:      5,
		MaxLeaves:     0,
		L2:            1.0,
		Gamma:         0.0,
		MinLeafWeight: 0.0,
		NBins:         256,
		Parallel:      true,
	}
}

// Validate checks every field. An unknown objective is reported as
// ErrInvalidObjective, any other bad value as ErrInvalidInput.
func (p Params) Validate() error {
	if _, err := objective.Parse(p.Objective); err != nil {
		return err
	}
	switch {
	case p.Iterations < 0:
		return errors.InvalidInputf("iterations is %d, expected a non-negative value", p.Iterations)
	case !(p.LearningRate > 0) || math.IsInf(p.LearningRate, 0):
		return errors.InvalidInputf("learning_rate is %v, expected a positive finite value", p.LearningRate)
	case p.MaxDepth < 0:
		return errors.InvalidInputf("max_depth is %d, expected a non-negative value", p.MaxDepth)
	case p.MaxLeaves < 0:
		return errors.InvalidInputf("max_leaves is %d, expected a non-negative value", p.MaxLeaves)
	case !nonNegative(p.L2):
		return errors.InvalidInputf("l2 is %v, expected a non-negative finite value", p.L2)
	case !nonNegative(p.Gamma):
		return errors.InvalidInputf("gamma is %v, expected a non-negative finite value", p.Gamma)
	case !nonNegative(p.MinLeafWeight):
		return errors.InvalidInputf("min_leaf_weight is %v, expected a non-negative finite value", p.MinLeafWeight)
	case p.BaseScore != nil && (math.IsNaN(*p.BaseScore) || math.IsInf(*p.BaseScore, 0)):
		return errors.InvalidInputf("base_score is %v, expected a finite value", *p.BaseScore)
	case p.NBins < 1 || p.NBins > binning.MaxBins:
		return errors.InvalidInputf("nbins is %d, expected a value in [1, %d]", p.NBins, binning.MaxBins)
	case p.NumThreads < 0:
		return errors.InvalidInputf("num_threads is %d, expected a non-negative value", p.NumThreads)
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// DecodeParams reads a JSON object of parameters. Missing fields keep their
// defaults and unknown fields are rejected.
func DecodeParams(r io.Reader) (Params, error) {
	params := DefaultParams()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&params); err != nil {
		return Params{}, errors.InvalidInputf("decode params: %v", err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// DecodeParamsYAML is DecodeParams for a YAML mapping with the same keys.
func DecodeParamsYAML(r io.Reader) (Params, error) {
	params := DefaultParams()
	decoder := yaml.NewDecoder(r)
	decoder.SetStrict(true)
	if err := decoder.Decode(&params); err != nil && err != io.EOF {
		return Params{}, errors.InvalidInputf("decode params: %v", err)
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}
