package mockdata

import (
	"math"
	"math/rand"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

// referenceVolatility is the daily FCPO bar volatility comparison
// volatilities are quoted against.
const referenceVolatility = 0.012

// generateSeries builds a random-walk OHLC series of tf.Points bars ending
// at the step-aligned bar containing now.
func generateSeries(r *rand.Rand, tf model.Timeframe, basePrice float64, now time.Time) []model.PricePoint {
	n := tf.Points
	if n <= 0 {
		return []model.PricePoint{}
	}
	first := now.UTC().Truncate(tf.Step).Add(-tf.Span())
	out := make([]model.PricePoint, n)

	price := basePrice * (1 + (r.Float64()-0.5)*0.04)
	for i := 0; i < n; i++ {
		open := price
		ret := r.NormFloat64() * tf.Volatility
		cl := open * (1 + ret)
		if cl <= 0 {
			cl = open
		}
		high := math.Max(open, cl) * (1 + r.Float64()*tf.Volatility*0.5)
		low := math.Min(open, cl) * (1 - r.Float64()*tf.Volatility*0.5)

		out[i] = model.PricePoint{
			TS:    first.Add(time.Duration(i) * tf.Step),
			Open:  round2(open),
			High:  round2(high),
			Low:   round2(low),
			Close: round2(cl),
		}
		price = cl
	}
	return out
}

// generateComparison builds a series for opt whose bar returns have
// correlation opt.Correlation with the returns of base. Timestamps are
// copied from base so the two align index-for-index.
func generateComparison(r *rand.Rand, opt model.ComparisonOption, base []model.PricePoint) []model.PricePoint {
	n := len(base)
	out := make([]model.PricePoint, n)
	if n == 0 {
		return out
	}

	returns := make([]float64, n)
	for i, p := range base {
		if p.Open > 0 {
			returns[i] = p.Close/p.Open - 1
		}
	}
	baseStd := stddev(returns)
	vol := opt.Volatility
	if baseStd > 0 {
		vol = opt.Volatility * baseStd / referenceVolatility
	}

	rho := opt.Correlation
	resid := math.Sqrt(math.Max(0, 1-rho*rho))
	price := opt.BasePrice * (1 + (r.Float64()-0.5)*0.02)

	for i := range base {
		z := 0.0
		if baseStd > 0 {
			z = returns[i] / baseStd
		}
		ret := vol * (rho*z + resid*r.NormFloat64())
		open := price
		cl := open * (1 + ret)
		if cl <= 0 {
			cl = open
		}
		high := math.Max(open, cl) * (1 + r.Float64()*vol*0.5)
		low := math.Min(open, cl) * (1 - r.Float64()*vol*0.5)

		out[i] = model.PricePoint{
			TS:    base[i].TS,
			Open:  round2(open),
			High:  round2(high),
			Low:   round2(low),
			Close: round2(cl),
		}
		price = cl
	}
	return out
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
