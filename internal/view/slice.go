package view

import "github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"

// Slice returns the visible part of series. The result aliases series.
func Slice(series []model.PricePoint, w model.Window) []model.PricePoint {
	w = Clamp(w, len(series))
	return series[w.Start:w.End]
}

// Combine merges the visible slice with the comparison closes at the same
// absolute indices. Indices past the end of comparison get no value.
func Combine(series, comparison []model.PricePoint, w model.Window) []model.ChartPoint {
	w = Clamp(w, len(series))
	out := make([]model.ChartPoint, 0, w.Width())
	for i := w.Start; i < w.End; i++ {
		cp := model.ChartPoint{PricePoint: series[i]}
		if i < len(comparison) {
			v := comparison[i].Close
			cp.Comparison = &v
		}
		out = append(out, cp)
	}
	return out
}

// Visible returns the chart points for s. Comparison data left over from a
// previous selection is ignored once the selection is NONE.
func Visible(s model.Snapshot) []model.ChartPoint {
	comp := s.ComparisonSeries
	if s.Comparison == model.ComparisonNone {
		comp = nil
	}
	return Combine(s.Series, comp, s.Window)
}

// Summarize derives PriceInfo from the last two points of series. With a
// single point the change is zero. A zero previous close yields a zero
// percentage. ok is false for an empty series.
func Summarize(series []model.PricePoint) (info model.PriceInfo, ok bool) {
	n := len(series)
	if n == 0 {
		return model.PriceInfo{}, false
	}
	latest := series[n-1]
	prev := latest
	if n > 1 {
		prev = series[n-2]
	}
	change := latest.Close - prev.Close
	pct := 0.0
	if prev.Close != 0 {
		pct = change / prev.Close * 100
	}
	return model.PriceInfo{Price: latest.Close, Change: change, ChangePercent: pct}, true
}
