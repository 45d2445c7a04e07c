package valuation

// TerminalGrowthEpsilon is the gap kept between WACC and terminal growth when
// the supplied growth would make the perpetuity denominator zero or negative.
const TerminalGrowthEpsilon = 0.001

// EffectiveTerminalGrowth returns the terminal growth actually used in the
// Gordon formula. When wacc <= growth, growth is replaced by
// wacc - TerminalGrowthEpsilon. The substitution is silent.
func EffectiveTerminalGrowth(wacc, growth float64) float64 {
	if wacc <= growth {
		return wacc - TerminalGrowthEpsilon
	}
	return growth
}

// TerminalValue capitalizes the final-year FCF as a growing perpetuity:
// TV = FCF_N * (1+g) / (WACC - g).
func TerminalValue(finalFCF, wacc, growth float64) float64 {
	g := EffectiveTerminalGrowth(wacc, growth)
	return finalFCF * (1 + g) / (wacc - g)
}
