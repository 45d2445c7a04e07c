package valuation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// PerSharePlaces is the rounding applied to the per-share value.
const PerSharePlaces = 2

// ErrNonFiniteResult is returned when the inputs drive the valuation to NaN or
// ±Inf, for example a WACC of -100% zeroing the discount denominator.
var ErrNonFiniteResult = errors.New("valuation result is not finite")

// Result holds the outputs of one DCF run.
type Result struct {
	Inputs                  Inputs                            `json:"inputs"`
	Periods                 [ProjectionYears]ProjectionPeriod `json:"periods"`
	DiscountedFCF           [ProjectionYears]float64          `json:"discounted_fcf"`
	EffectiveTerminalGrowth float64                           `json:"effective_terminal_growth"`
	TerminalValue           float64                           `json:"terminal_value"`
	DiscountedTerminalValue float64                           `json:"discounted_terminal_value"`
	EnterpriseValue         float64                           `json:"enterprise_value"`
	EquityValue             float64                           `json:"equity_value"`
	IntrinsicValue          float64                           `json:"intrinsic_value_per_share"`
}

// Aggregate discounts the FCF stream and terminal value at in.WACC, bridges
// enterprise value to equity and divides by the share count.
func Aggregate(fcfs [ProjectionYears]float64, terminalValue float64, in Inputs) Result {
	var res Result
	var pvFCF float64

	// Track cumulative discount factor 1/(1+w)^t
	cumDiscountFactor := 1.0
	for i, fcf := range fcfs {
		cumDiscountFactor /= (1.0 + in.WACC)
		res.DiscountedFCF[i] = fcf * cumDiscountFactor
		pvFCF += res.DiscountedFCF[i]
	}

	res.TerminalValue = terminalValue
	res.DiscountedTerminalValue = terminalValue * cumDiscountFactor
	res.EnterpriseValue = pvFCF + res.DiscountedTerminalValue
	res.EquityValue = res.EnterpriseValue - in.Debt + in.Cash
	res.IntrinsicValue = RoundPerShare(res.EquityValue / in.SharesOutstanding)
	res.Inputs = in

	return res
}

// Calculate runs projection, terminal value and aggregation for normalized inputs.
func Calculate(in Inputs) Result {
	periods := Project(in)
	fcfs := FreeCashFlows(periods)

	tv := TerminalValue(fcfs[ProjectionYears-1], in.WACC, in.TerminalGrowthRate)

	res := Aggregate(fcfs, tv, in)
	res.Periods = periods
	res.EffectiveTerminalGrowth = EffectiveTerminalGrowth(in.WACC, in.TerminalGrowthRate)
	return res
}

// Run normalizes raw fields and calculates the valuation.
func Run(f Fields) (Result, error) {
	in, err := Normalize(f)
	if err != nil {
		return Result{}, err
	}
	res := Calculate(in)
	if !isFinite(res.IntrinsicValue) {
		return Result{}, fmt.Errorf("%w: per-share value %v at wacc %v, terminal growth %v",
			ErrNonFiniteResult, res.IntrinsicValue, in.WACC, in.TerminalGrowthRate)
	}
	return res, nil
}

// RoundPerShare rounds the exact binary value to PerSharePlaces decimals,
// breaking exact ties to even. NaN and ±Inf pass through unchanged.
func RoundPerShare(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', PerSharePlaces, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
