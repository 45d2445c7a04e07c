// Package sensitivity sweeps the DCF engine across discount-rate and
// terminal-growth perturbations and assembles the results into a table.
package sensitivity

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"intrinsic_valuation/pkg/core/valuation"
)

// GridSize is the number of points on each axis.
const GridSize = 5

// CenterIndex is the row/column holding the unperturbed inputs.
const CenterIndex = GridSize / 2

// Offsets in percentage points, in the caller's units.
var (
	WACCOffsets   = [GridSize]float64{-1, -0.5, 0, 0.5, 1}
	GrowthOffsets = [GridSize]float64{-0.5, -0.25, 0, 0.25, 0.5}
)

// Options tunes grid evaluation.
type Options struct {
	// Parallelism bounds concurrent cell evaluations. Values <= 1 run sequentially.
	Parallelism int
}

// Grid is a row-major table of per-share values: rows follow WACC, columns
// follow terminal growth.
type Grid struct {
	WACCHeaders   []string                    `json:"wacc_headers"`
	GrowthHeaders []string                    `json:"growth_headers"`
	Table         [GridSize][GridSize]float64 `json:"table"`

	WACCRange   [GridSize]float64 `json:"-"`
	GrowthRange [GridSize]float64 `json:"-"`
}

// Ranges centers the offset vectors on the base rates.
func Ranges(baseWACC, baseGrowth float64) (wacc, growth [GridSize]float64) {
	for i := 0; i < GridSize; i++ {
		wacc[i] = baseWACC + WACCOffsets[i]
		growth[i] = baseGrowth + GrowthOffsets[i]
	}
	return wacc, growth
}

// FormatPercent renders a percentage-point value as "<value>%" with 2 decimals.
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// Generate re-runs the full valuation pipeline for every (WACC, growth) pair.
// Each cell works on its own copy of fields, so cells may run in any order.
func Generate(ctx context.Context, fields valuation.Fields, opts Options) (Grid, error) {
	baseWACC, err := fields.Float(valuation.FieldWACC, 0)
	if err != nil {
		return Grid{}, err
	}
	baseGrowth, err := fields.Float(valuation.FieldTerminalGrowthRate, 0)
	if err != nil {
		return Grid{}, err
	}

	grid := Grid{}
	grid.WACCRange, grid.GrowthRange = Ranges(baseWACC, baseGrowth)
	grid.WACCHeaders = make([]string, GridSize)
	grid.GrowthHeaders = make([]string, GridSize)
	for i := 0; i < GridSize; i++ {
		grid.WACCHeaders[i] = FormatPercent(grid.WACCRange[i])
		grid.GrowthHeaders[i] = FormatPercent(grid.GrowthRange[i])
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if opts.Parallelism > 1 {
		eg.SetLimit(opts.Parallelism)
	} else {
		eg.SetLimit(1)
	}

	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			cell := fields.
				With(valuation.FieldWACC, grid.WACCRange[row]).
				With(valuation.FieldTerminalGrowthRate, grid.GrowthRange[col])
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				res, err := valuation.Run(cell)
				if err != nil {
					return fmt.Errorf("cell [%d][%d]: %w", row, col, err)
				}
				// Each goroutine owns exactly one slot.
				grid.Table[row][col] = res.IntrinsicValue
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return Grid{}, err
	}
	return grid, nil
}
