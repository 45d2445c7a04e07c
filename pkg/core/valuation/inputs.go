package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field keys accepted from the transport layer.
const (
	FieldCurrentRevenue     = "currentRevenue"
	FieldGrowthRate         = "growthRate"
	FieldEBITDAMargin       = "ebitdaMargin"
	FieldTaxRate            = "taxRate"
	FieldCapexRate          = "capexRate"
	FieldDARate             = "dA_Rate"
	FieldNWCRate            = "nwcRate"
	FieldWACC               = "wacc"
	FieldTerminalGrowthRate = "terminalGrowthRate"
	FieldSharesOutstanding  = "sharesOutstanding"
	FieldCash               = "cash"
	FieldDebt               = "debt"
)

// FieldNames lists every recognised key in display order.
var FieldNames = []string{
	FieldCurrentRevenue,
	FieldGrowthRate,
	FieldEBITDAMargin,
	FieldTaxRate,
	FieldCapexRate,
	FieldDARate,
	FieldNWCRate,
	FieldWACC,
	FieldTerminalGrowthRate,
	FieldSharesOutstanding,
	FieldCash,
	FieldDebt,
}

// ErrInvalidInput is matched by every *ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid valuation input")

// ValidationError identifies the field that could not be normalized.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Fields is the raw, percentage-scale input mapping handed over by a caller.
type Fields map[string]any

// Clone returns a shallow copy. Values are scalars, so the copy is independent.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// With returns a copy of f with key set to value. f itself is left untouched.
func (f Fields) With(key string, value any) Fields {
	out := f.Clone()
	out[key] = value
	return out
}

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// Float reads key as a number, returning fallback when the key is absent.
func (f Fields) Float(key string, fallback float64) (float64, error) {
	raw, ok := f[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, &ValidationError{Field: key, Reason: err.Error()}
	}
	return v, nil
}

// Inputs holds normalized valuation drivers. Rates are decimal fractions,
// monetary amounts are in absolute currency units.
type Inputs struct {
	CurrentRevenue     float64 `json:"current_revenue"`
	GrowthRate         float64 `json:"growth_rate"`
	EBITDAMargin       float64 `json:"ebitda_margin"`
	TaxRate            float64 `json:"tax_rate"`
	CapexRate          float64 `json:"capex_rate"`
	DARate             float64 `json:"da_rate"`
	NWCRate            float64 `json:"nwc_rate"`
	WACC               float64 `json:"wacc"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	SharesOutstanding  float64 `json:"shares_outstanding"`
	Cash               float64 `json:"cash"`
	Debt               float64 `json:"debt"`
}

// Normalize converts raw fields into Inputs. Percentage fields are divided by
// 100, missing fields default to 0 and sharesOutstanding defaults to 1.
func Normalize(f Fields) (Inputs, error) {
	var in Inputs

	pct := []struct {
		key string
		dst *float64
	}{
		{FieldGrowthRate, &in.GrowthRate},
		{FieldEBITDAMargin, &in.EBITDAMargin},
		{FieldTaxRate, &in.TaxRate},
		{FieldCapexRate, &in.CapexRate},
		{FieldDARate, &in.DARate},
		{FieldNWCRate, &in.NWCRate},
		{FieldWACC, &in.WACC},
		{FieldTerminalGrowthRate, &in.TerminalGrowthRate},
	}
	abs := []struct {
		key      string
		dst      *float64
		fallback float64
	}{
		{FieldCurrentRevenue, &in.CurrentRevenue, 0},
		{FieldSharesOutstanding, &in.SharesOutstanding, 1},
		{FieldCash, &in.Cash, 0},
		{FieldDebt, &in.Debt, 0},
	}

	for _, p := range pct {
		v, err := f.Float(p.key, 0)
		if err != nil {
			return Inputs{}, err
		}
		*p.dst = v / 100
	}
	for _, a := range abs {
		v, err := f.Float(a.key, a.fallback)
		if err != nil {
			return Inputs{}, err
		}
		*a.dst = v
	}

	// A zero or negative share count has no per-share meaning.
	if in.SharesOutstanding <= 0 {
		return Inputs{}, &ValidationError{Field: FieldSharesOutstanding, Reason: "must be greater than zero"}
	}

	return in, nil
}

func toFloat(raw any) (float64, error) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int8:
		v = float64(n)
	case int16:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint8:
		v = float64(n)
	case uint16:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		v = f
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return v, nil
}
