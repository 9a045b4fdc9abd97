// Package calculator implements the Fixed Deposit and SIP maturity formulas.
package calculator

import (
	"math"

	"sharada-markets/internal/domain"
)

// FDCompoundingPerYear is the number of compounding periods for a fixed deposit.
const FDCompoundingPerYear = 4

type TenureUnit string

const (
	Years  TenureUnit = "years"
	Months TenureUnit = "months"
)

type FDInput struct {
	Principal float64    `json:"principal"`
	RatePct   float64    `json:"rate"`
	Tenure    float64    `json:"tenure"`
	Unit      TenureUnit `json:"tenureType"`
}

type FDResult struct {
	Principal      float64 `json:"principal"`
	MaturityAmount float64 `json:"maturityAmount"`
	Interest       float64 `json:"interest"`
	EffectiveRate  float64 `json:"effectiveRate"`
	Years          float64 `json:"years"`
	Quarters       float64 `json:"quarters"`
}

// Validate enforces the input ranges offered by the FD calculator form.
func (in FDInput) Validate() error {
	if in.Principal < 1000 || in.Principal > 10_000_000 {
		return domain.NewValidationError("principal", "must be between 1,000 and 10,000,000")
	}
	if in.RatePct < 3 || in.RatePct > 15 {
		return domain.NewValidationError("rate", "must be between 3 and 15 percent")
	}
	switch in.unit() {
	case Years:
		if in.Tenure < 1 || in.Tenure > 20 {
			return domain.NewValidationError("tenure", "must be between 1 and 20 years")
		}
	case Months:
		if in.Tenure < 1 || in.Tenure > 240 {
			return domain.NewValidationError("tenure", "must be between 1 and 240 months")
		}
	default:
		return domain.NewValidationError("tenureType", "must be %q or %q", Years, Months)
	}
	return nil
}

func (in FDInput) unit() TenureUnit {
	if in.Unit == "" {
		return Years
	}
	return in.Unit
}

// TenureYears converts the tenure to years.
func (in FDInput) TenureYears() float64 {
	if in.unit() == Months {
		return in.Tenure / 12
	}
	return in.Tenure
}

// FD computes the maturity of a quarterly-compounded fixed deposit.
// A zero rate or zero tenure returns the principal unchanged.
func FD(in FDInput) FDResult {
	years := in.TenureYears()
	res := FDResult{
		Principal:      in.Principal,
		MaturityAmount: in.Principal,
		Years:          years,
		Quarters:       years * FDCompoundingPerYear,
	}
	if in.RatePct == 0 || years == 0 {
		return res
	}

	rate := in.RatePct / 100
	res.MaturityAmount = in.Principal * math.Pow(1+rate/FDCompoundingPerYear, FDCompoundingPerYear*years)
	res.Interest = res.MaturityAmount - in.Principal
	if in.Principal != 0 {
		res.EffectiveRate = res.Interest / in.Principal * 100
	}
	return res
}

type SIPInput struct {
	Monthly         float64 `json:"monthlyInvestment"`
	AnnualReturnPct float64 `json:"annualReturn"`
	Years           float64 `json:"years"`
}

type SIPResult struct {
	Months          float64 `json:"months"`
	TotalInvestment float64 `json:"totalInvestment"`
	FutureValue     float64 `json:"futureValue"`
	TotalReturns    float64 `json:"totalReturns"`
	ReturnPct       float64 `json:"returnPercentage"`
}

// Validate enforces the input ranges offered by the SIP calculator form.
func (in SIPInput) Validate() error {
	if in.Monthly < 500 || in.Monthly > 1_000_000 {
		return domain.NewValidationError("monthlyInvestment", "must be between 500 and 1,000,000")
	}
	if in.AnnualReturnPct < 6 || in.AnnualReturnPct > 30 {
		return domain.NewValidationError("annualReturn", "must be between 6 and 30 percent")
	}
	if in.Years < 1 || in.Years > 50 {
		return domain.NewValidationError("years", "must be between 1 and 50")
	}
	return nil
}

// SIP computes the future value of monthly contributions made at the start
// of each month (annuity due).
func SIP(in SIPInput) SIPResult {
	months := in.Years * 12
	res := SIPResult{
		Months:          months,
		TotalInvestment: in.Monthly * months,
	}
	res.FutureValue = sipFutureValue(in.Monthly, in.AnnualReturnPct, months)
	res.TotalReturns = res.FutureValue - res.TotalInvestment
	if res.TotalInvestment != 0 {
		res.ReturnPct = res.TotalReturns / res.TotalInvestment * 100
	}
	return res
}

func sipFutureValue(monthly, annualReturnPct, months float64) float64 {
	monthlyRate := annualReturnPct / 100 / 12
	if monthlyRate == 0 {
		return monthly * months
	}
	growth := math.Pow(1+monthlyRate, months)
	return monthly * ((growth - 1) / monthlyRate) * (1 + monthlyRate)
}

// SIPYear is the cumulative position at the end of one year of a plan.
type SIPYear struct {
	Year     int     `json:"year"`
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// SIPSchedule returns the year-end position for every full year of the plan.
func SIPSchedule(in SIPInput) []SIPYear {
	years := int(in.Years)
	out := make([]SIPYear, 0, years)
	for y := 1; y <= years; y++ {
		months := float64(y * 12)
		out = append(out, SIPYear{
			Year:     y,
			Invested: in.Monthly * months,
			Value:    sipFutureValue(in.Monthly, in.AnnualReturnPct, months),
		})
	}
	return out
}
