// Package booster fits and applies ensembles of gradient boosted trees.
package booster

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/tarstars/forust/binning"
	"github.com/tarstars/forust/data"
	"github.com/tarstars/forust/internal/pool"
	"github.com/tarstars/forust/objective"
	"github.com/tarstars/forust/pkg/errors"
	"github.com/tarstars/forust/pkg/log"
	"github.com/tarstars/forust/tree"
)

// GradientBooster is the model. It is empty until Fit succeeds; Predict and
// Dump may then be called concurrently, but Fit must not run concurrently
// with any other method.
type GradientBooster struct {
	params    Params
	objective objective.Objective
	logger    zerolog.Logger

	fitted    bool
	baseScore float64
	cuts      [][]float64
	nfeatures int
	trees     []*tree.Tree
	curves    LearningCurves
}

// New validates params and returns an unfitted booster.
func New(params Params, opts ...Option) (*GradientBooster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	obj, err := objective.Parse(params.Objective)
	if err != nil {
		return nil, err
	}
	b := &GradientBooster{params: params, objective: obj, logger: log.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = log.Component(b.logger, "booster")
	return b, nil
}

// Params returns the configuration of the booster.
func (b *GradientBooster) Params() Params { return b.params }

// ensemble is the result of one fit, committed only on success.
type ensemble struct {
	baseScore float64
	cuts      [][]float64
	trees     []*tree.Tree
	curves    LearningCurves
}

// evalState tracks the running prediction of one evaluation set.
type evalState struct {
	set    EvalSet
	binned *binning.BinnedMatrix
	yhat   []float64
}

// Fit trains a new ensemble on x and y with sample weights w, nil meaning unit
// weights. On error the previous ensemble is left untouched.
func (b *GradientBooster) Fit(x *data.Matrix, y, w []float64, opts ...FitOption) error {
	cfg := fitConfig{parallel: b.params.Parallel}
	for _, opt := range opts {
		opt(&cfg)
	}

	if x == nil {
		err := errors.Fitf("fit matrix is nil")
		b.logger.Error().Err(err).Msg("fit failed")
		return err
	}

	start := time.Now()
	b.logger.Info().
		Str("objective", b.objective.Name()).
		Int(log.SamplesKey, x.Rows()).
		Int(log.FeaturesKey, x.Cols()).
		Int("iterations", b.params.Iterations).
		Bool("parallel", cfg.parallel).
		Msg("fit started")

	result, err := b.fit(x, y, w, cfg)
	if err != nil {
		b.logger.Error().Err(err).Msg("fit failed")
		return err
	}

	b.fitted = true
	b.baseScore = result.baseScore
	b.cuts = result.cuts
	b.nfeatures = x.Cols()
	b.trees = result.trees
	b.curves = result.curves

	b.logger.Info().
		Int("trees", len(result.trees)).
		Float64("base_score", result.baseScore).
		Dur(log.DurationKey, time.Since(start)).
		Msg("fit finished")
	return nil
}

func (b *GradientBooster) fit(x *data.Matrix, y, w []float64, cfg fitConfig) (*ensemble, error) {
	rows, cols := x.Dims()
	if w == nil {
		w = make([]float64, rows)
		for i := range w {
			w[i] = 1
		}
	}
	if err := b.validateFitInputs(x, y, w); err != nil {
		return nil, err
	}
	for _, set := range cfg.evalSets {
		if err := b.validateEvalSet(set, cols); err != nil {
			return nil, err
		}
	}

	var p *pool.Pool
	if cfg.parallel {
		p = pool.New(b.params.NumThreads)
	}

	base := b.objective.BaseScore(y, w)
	if b.params.BaseScore != nil {
		base = *b.params.BaseScore
	}

	bins, err := binning.BinMatrix(x, w, b.params.NBins, binning.WithPool(p))
	if err != nil {
		return nil, errors.WrapFit(err, "bin training matrix")
	}

	evals := make([]evalState, len(cfg.evalSets))
	curves := LearningCurves{Titles: make([]string, len(cfg.evalSets)), Values: make([][]float64, 0, b.params.Iterations)}
	for i, set := range cfg.evalSets {
		binned, err := binning.Apply(set.X, bins.Cuts)
		if err != nil {
			return nil, errors.WrapFit(err, "bin eval set "+set.Name)
		}
		evals[i] = evalState{set: set, binned: binned, yhat: constant(set.X.Rows(), base)}
		curves.Titles[i] = set.Name
	}

	grower := tree.NewGrower(tree.GrowerConfig{
		MaxDepth:      b.params.MaxDepth,
		MaxLeaves:     b.params.MaxLeaves,
		L2:            b.params.L2,
		Gamma:         b.params.Gamma,
		MinLeafWeight: b.params.MinLeafWeight,
	}, p)

	yhat := constant(rows, base)
	grad := make([]float64, rows)
	hess := make([]float64, rows)
	trees := make([]*tree.Tree, 0, b.params.Iterations)
	lr := b.params.LearningRate

	for iteration := 0; iteration < b.params.Iterations; iteration++ {
		b.objective.Gradients(y, yhat, w, grad, hess)
		if err := checkFinite("gradient", grad); err != nil {
			return nil, err
		}
		if err := checkFinite("hessian", hess); err != nil {
			return nil, err
		}

		t := grower.Grow(bins.Binned, bins.Cuts, bins.NUnique, grad, hess)
		trees = append(trees, t)
		p.RunRanges(rows, func(start, end int) {
			for r := start; r < end; r++ {
				yhat[r] += lr * t.PredictBinned(bins.Binned, r)
			}
		})

		row := make([]float64, len(evals))
		for i := range evals {
			e := &evals[i]
			for r := range e.yhat {
				e.yhat[r] += lr * t.PredictBinned(e.binned, r)
			}
			row[i] = b.objective.Loss(e.set.Y, e.yhat, nil)
		}
		curves.Values = append(curves.Values, row)

		if event := b.logger.Debug(); event.Enabled() {
			event = event.Int(log.IterationKey, iteration+1).
				Int(log.LeavesKey, t.NumLeaves()).
				Int("depth", t.Depth()).
				Float64(log.LossKey, b.objective.Loss(y, yhat, w))
			for i, e := range evals {
				event = event.Float64("loss_"+e.set.Name, row[i])
			}
			event.Msg("tree added")
		}
	}

	return &ensemble{baseScore: base, cuts: bins.Cuts, trees: trees, curves: curves}, nil
}

func (b *GradientBooster) validateFitInputs(x *data.Matrix, y, w []float64) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return errors.Fitf("cannot fit an empty %dx%d matrix", rows, cols)
	}
	if len(y) != rows {
		return errors.NewDimensionError(errors.ErrFit, "fit targets", rows, len(y), 0)
	}
	if len(w) != rows {
		return errors.NewDimensionError(errors.ErrFit, "fit weights", rows, len(w), 0)
	}
	if err := x.CheckFinite(errors.ErrFit, "fit"); err != nil {
		return err
	}
	if err := checkFinite("target", y); err != nil {
		return err
	}
	if err := checkFinite("weight", w); err != nil {
		return err
	}
	if i := floats.MinIdx(w); w[i] < 0 {
		return errors.Fitf("weight %d is %v, weights must be non-negative", i, w[i])
	}
	if total := floats.Sum(w); total <= 0 {
		return errors.Fitf("weights sum to %v, expected a positive total", total)
	}
	return b.objective.CheckTarget(y)
}

func (b *GradientBooster) validateEvalSet(set EvalSet, cols int) error {
	if set.X == nil {
		return errors.Fitf("eval set %q has no matrix", set.Name)
	}
	if set.X.Cols() != cols {
		return errors.NewDimensionError(errors.ErrFit, "eval set "+set.Name, cols, set.X.Cols(), 1)
	}
	if len(set.Y) != set.X.Rows() {
		return errors.NewDimensionError(errors.ErrFit, "eval set "+set.Name+" targets", set.X.Rows(), len(set.Y), 0)
	}
	if set.X.Rows() == 0 {
		return errors.Fitf("eval set %q is empty", set.Name)
	}
	if err := set.X.CheckFinite(errors.ErrFit, "eval set "+set.Name); err != nil {
		return err
	}
	if err := checkFinite("eval target", set.Y); err != nil {
		return err
	}
	return b.objective.CheckTarget(set.Y)
}

// Predict returns base score plus learning rate times the sum of tree outputs
// for every row of x. Raw values are compared with the split thresholds; NaN
// goes right at every split.
func (b *GradientBooster) Predict(x *data.Matrix, opts ...PredictOption) ([]float64, error) {
	cfg := predictConfig{parallel: b.params.Parallel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !b.fitted {
		return nil, errors.NotFitted("predict")
	}
	if x == nil {
		return nil, errors.InvalidInputf("predict matrix is nil")
	}
	if x.Cols() != b.nfeatures {
		return nil, errors.NewDimensionError(errors.ErrShape, "predict", b.nfeatures, x.Cols(), 1)
	}
	trees := b.trees
	if cfg.limited {
		if cfg.treeLimit < 0 || cfg.treeLimit > len(b.trees) {
			return nil, errors.InvalidInputf("tree limit is %d, the ensemble has %d trees", cfg.treeLimit, len(b.trees))
		}
		trees = b.trees[:cfg.treeLimit]
	}

	var p *pool.Pool
	if cfg.parallel {
		p = pool.New(b.params.NumThreads)
	}
	out := make([]float64, x.Rows())
	p.RunRanges(x.Rows(), func(start, end int) {
		for r := start; r < end; r++ {
			row := x.Row(r)
			sum := 0.0
			for _, t := range trees {
				sum += t.PredictRow(row)
			}
			out[r] = b.baseScore + b.params.LearningRate*sum
		}
	})
	return out, nil
}

// Dump returns one text rendering per tree, in fitting order.
func (b *GradientBooster) Dump() []string {
	out := make([]string, len(b.trees))
	for i, t := range b.trees {
		out[i] = t.String()
	}
	return out
}

// BaseScore returns the constant the ensemble starts from.
func (b *GradientBooster) BaseScore() float64 { return b.baseScore }

// Trees returns copies of the fitted trees.
func (b *GradientBooster) Trees() []*tree.Tree {
	out := make([]*tree.Tree, len(b.trees))
	for i, t := range b.trees {
		out[i] = t.Clone()
	}
	return out
}

// Cuts returns the per-feature bin boundaries learned on the training matrix.
func (b *GradientBooster) Cuts() [][]float64 {
	out := make([][]float64, len(b.cuts))
	for f, c := range b.cuts {
		out[f] = append([]float64(nil), c...)
	}
	return out
}

// LearningCurves returns the eval set losses of the last fit.
func (b *GradientBooster) LearningCurves() LearningCurves { return b.curves.clone() }

// IsFitted reports whether Fit has succeeded at least once.
func (b *GradientBooster) IsFitted() bool { return b.fitted }

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func checkFinite(what string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewNonFiniteError(errors.ErrFit, what, i, v)
		}
	}
	return nil
}
