package calculator

import (
	"errors"
	"math"
	"testing"

	"sharada-markets/internal/domain"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFDExample(t *testing.T) {
	res := FD(FDInput{Principal: 100000, RatePct: 7, Tenure: 1, Unit: Years})
	if !approx(res.MaturityAmount, 107185.90, 0.01) {
		t.Fatalf("expected maturity ~107185.90, got %.4f", res.MaturityAmount)
	}
	if !approx(res.Interest, 7185.90, 0.01) {
		t.Fatalf("expected interest ~7185.90, got %.4f", res.Interest)
	}
	if !approx(res.EffectiveRate, 7.1859, 0.0001) {
		t.Fatalf("unexpected effective rate: %.6f", res.EffectiveRate)
	}
	if res.Quarters != 4 {
		t.Fatalf("expected 4 quarters, got %f", res.Quarters)
	}
}

func TestFDZeroRateReturnsPrincipal(t *testing.T) {
	for _, years := range []float64{0, 1, 5, 20} {
		res := FD(FDInput{Principal: 250000, RatePct: 0, Tenure: years})
		if res.MaturityAmount != 250000 || res.Interest != 0 {
			t.Fatalf("years=%v: expected principal unchanged, got %+v", years, res)
		}
	}
}

func TestFDZeroTenureReturnsPrincipal(t *testing.T) {
	res := FD(FDInput{Principal: 5000, RatePct: 9, Tenure: 0, Unit: Months})
	if res.MaturityAmount != 5000 {
		t.Fatalf("expected 5000, got %f", res.MaturityAmount)
	}
}

func TestFDMonthsEquivalentToYears(t *testing.T) {
	for _, p := range []float64{1000, 100000, 9_999_999} {
		for _, r := range []float64{3, 7.5, 15} {
			for _, y := range []float64{1, 2, 7, 20} {
				inYears := FD(FDInput{Principal: p, RatePct: r, Tenure: y, Unit: Years})
				inMonths := FD(FDInput{Principal: p, RatePct: r, Tenure: y * 12, Unit: Months})
				if inYears.MaturityAmount != inMonths.MaturityAmount {
					t.Fatalf("p=%v r=%v y=%v: %f != %f", p, r, y, inYears.MaturityAmount, inMonths.MaturityAmount)
				}
			}
		}
	}
}

func TestFDDefaultsToYears(t *testing.T) {
	a := FD(FDInput{Principal: 10000, RatePct: 6, Tenure: 3})
	b := FD(FDInput{Principal: 10000, RatePct: 6, Tenure: 3, Unit: Years})
	if a != b {
		t.Fatalf("empty unit should mean years: %+v vs %+v", a, b)
	}
}

func TestFDValidate(t *testing.T) {
	valid := FDInput{Principal: 100000, RatePct: 7, Tenure: 12, Unit: Months}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []FDInput{
		{Principal: 999, RatePct: 7, Tenure: 1},
		{Principal: 20_000_000, RatePct: 7, Tenure: 1},
		{Principal: 1000, RatePct: 2, Tenure: 1},
		{Principal: 1000, RatePct: 7, Tenure: 21, Unit: Years},
		{Principal: 1000, RatePct: 7, Tenure: 241, Unit: Months},
		{Principal: 1000, RatePct: 7, Tenure: 1, Unit: "weeks"},
	}
	for _, in := range cases {
		err := in.Validate()
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestSIPExample(t *testing.T) {
	res := SIP(SIPInput{Monthly: 5000, AnnualReturnPct: 12, Years: 10})
	if res.TotalInvestment != 600000 {
		t.Fatalf("expected total investment 600000, got %f", res.TotalInvestment)
	}
	if !approx(res.FutureValue, 1161695, 1) {
		t.Fatalf("expected future value ~1161695, got %.2f", res.FutureValue)
	}
	if res.Months != 120 {
		t.Fatalf("expected 120 months, got %f", res.Months)
	}
}

func TestSIPZeroRate(t *testing.T) {
	for _, years := range []float64{1, 10, 30} {
		res := SIP(SIPInput{Monthly: 2500, AnnualReturnPct: 0, Years: years})
		if res.FutureValue != 2500*years*12 {
			t.Fatalf("years=%v: expected %f, got %f", years, 2500*years*12, res.FutureValue)
		}
		if res.TotalReturns != 0 || res.ReturnPct != 0 {
			t.Fatalf("zero rate should produce no returns: %+v", res)
		}
	}
}

func TestSIPReturnsIdentity(t *testing.T) {
	for _, m := range []float64{500, 5000, 1_000_000} {
		for _, r := range []float64{6, 12, 30} {
			for _, y := range []float64{1, 15, 50} {
				res := SIP(SIPInput{Monthly: m, AnnualReturnPct: r, Years: y})
				if res.TotalReturns != res.FutureValue-res.TotalInvestment {
					t.Fatalf("identity broken for m=%v r=%v y=%v: %+v", m, r, y, res)
				}
				if res.FutureValue <= res.TotalInvestment {
					t.Fatalf("positive rate should grow the corpus: %+v", res)
				}
			}
		}
	}
}

func TestSIPValidate(t *testing.T) {
	if err := (SIPInput{Monthly: 5000, AnnualReturnPct: 12, Years: 10}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, in := range []SIPInput{
		{Monthly: 100, AnnualReturnPct: 12, Years: 10},
		{Monthly: 5000, AnnualReturnPct: 5, Years: 10},
		{Monthly: 5000, AnnualReturnPct: 12, Years: 51},
	} {
		if err := in.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
}

func TestSIPScheduleEndsAtFutureValue(t *testing.T) {
	in := SIPInput{Monthly: 5000, AnnualReturnPct: 12, Years: 10}
	schedule := SIPSchedule(in)
	if len(schedule) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(schedule))
	}
	last := schedule[len(schedule)-1]
	if last.Value != SIP(in).FutureValue || last.Invested != 600000 {
		t.Fatalf("last row should match the plan totals: %+v", last)
	}
	for i := 1; i < len(schedule); i++ {
		if schedule[i].Value <= schedule[i-1].Value {
			t.Fatalf("value should grow every year: %+v", schedule)
		}
	}
}
