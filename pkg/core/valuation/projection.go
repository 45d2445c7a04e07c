package valuation

// ProjectionYears is the explicit forecast horizon.
const ProjectionYears = 5

// ProjectionPeriod is one projected year of the free-cash-flow build.
type ProjectionPeriod struct {
	Year         int     `json:"year"`
	Revenue      float64 `json:"revenue"`
	EBITDA       float64 `json:"ebitda"`
	DA           float64 `json:"d_and_a"`
	EBIT         float64 `json:"ebit"`
	Taxes        float64 `json:"taxes"`
	NOPAT        float64 `json:"nopat"`
	Capex        float64 `json:"capex"`
	ChangeInNWC  float64 `json:"change_in_nwc"`
	FreeCashFlow float64 `json:"fcf"`
}

// Project runs the revenue recurrence R_t = R_{t-1}(1+g) forward and derives
// FCF for each year. Each year depends only on the prior year's revenue.
func Project(in Inputs) [ProjectionYears]ProjectionPeriod {
	var periods [ProjectionYears]ProjectionPeriod

	prevRevenue := in.CurrentRevenue
	for i := range periods {
		revenue := prevRevenue * (1 + in.GrowthRate)

		ebitda := revenue * in.EBITDAMargin
		da := revenue * in.DARate
		ebit := ebitda - da
		taxes := ebit * in.TaxRate
		nopat := ebit - taxes
		capex := revenue * in.CapexRate
		// Working capital moves with the year's revenue delta, not its level.
		deltaNWC := (revenue - prevRevenue) * in.NWCRate

		periods[i] = ProjectionPeriod{
			Year:         i + 1,
			Revenue:      revenue,
			EBITDA:       ebitda,
			DA:           da,
			EBIT:         ebit,
			Taxes:        taxes,
			NOPAT:        nopat,
			Capex:        capex,
			ChangeInNWC:  deltaNWC,
			FreeCashFlow: nopat + da - capex - deltaNWC,
		}
		prevRevenue = revenue
	}

	return periods
}

// FreeCashFlows extracts the FCF sequence in year order.
func FreeCashFlows(periods [ProjectionYears]ProjectionPeriod) [ProjectionYears]float64 {
	var fcfs [ProjectionYears]float64
	for i, p := range periods {
		fcfs[i] = p.FreeCashFlow
	}
	return fcfs
}
