package sensitivity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"intrinsic_valuation/pkg/core/valuation"
)

// Analysis is the base valuation together with its sensitivity grid.
type Analysis struct {
	IntrinsicValue float64          `json:"intrinsicValue"`
	Sensitivity    Grid             `json:"sensitivityAnalysis"`
	Base           valuation.Result `json:"-"`
}

// Analyzer runs the base case and the sensitivity grid for a request.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil logger disables logging.
func NewAnalyzer(opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{opts: opts, logger: logger.Named("sensitivity")}
}

// Analyze validates every field up front, then computes the base valuation
// and the 25-cell grid. No partial result is returned on failure.
func (a *Analyzer) Analyze(ctx context.Context, fields valuation.Fields) (*Analysis, error) {
	for _, key := range []string{valuation.FieldWACC, valuation.FieldTerminalGrowthRate} {
		if !fields.Has(key) {
			return nil, &valuation.ValidationError{Field: key, Reason: "required for sensitivity analysis"}
		}
	}

	base, err := valuation.Run(fields)
	if err != nil {
		return nil, err
	}

	grid, err := Generate(ctx, fields, a.opts)
	if err != nil {
		return nil, fmt.Errorf("sensitivity grid: %w", err)
	}

	a.logger.Debug("analysis complete",
		zap.Float64("intrinsic_value", base.IntrinsicValue),
		zap.Float64("enterprise_value", base.EnterpriseValue),
		zap.Float64("effective_terminal_growth", base.EffectiveTerminalGrowth),
		zap.Int("cells", GridSize*GridSize),
	)

	return &Analysis{
		IntrinsicValue: base.IntrinsicValue,
		Sensitivity:    grid,
		Base:           base,
	}, nil
}

// Analyze is a convenience wrapper using a no-op logger.
func Analyze(ctx context.Context, fields valuation.Fields, opts Options) (*Analysis, error) {
	return NewAnalyzer(opts, nil).Analyze(ctx, fields)
}
