package view

import (
	"math"
	"testing"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

func makeSeries(closes ...float64) []model.PricePoint {
	t0 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = model.PricePoint{TS: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestSlice(t *testing.T) {
	s := makeSeries(1, 2, 3, 4, 5)
	got := Slice(s, win(1, 4))
	if len(got) != 3 || got[0].Close != 2 || got[2].Close != 4 {
		t.Errorf("Slice = %+v", got)
	}
	if len(Slice(s, win(5, 5))) != 0 {
		t.Error("expected empty slice at the end")
	}
	if len(Slice(nil, win(0, 10))) != 0 {
		t.Error("expected empty slice for nil series")
	}
}

func TestCombine_AlignsByIndex(t *testing.T) {
	base := makeSeries(10, 11, 12, 13)
	comp := makeSeries(100, 101, 102)

	got := Combine(base, comp, win(1, 4))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Close != 11 || got[0].Comparison == nil || *got[0].Comparison != 101 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Comparison == nil || *got[1].Comparison != 102 {
		t.Errorf("got[1] comparison = %v", got[1].Comparison)
	}
	if got[2].Comparison != nil {
		t.Errorf("got[2] comparison = %v, want nil past comparison end", *got[2].Comparison)
	}
}

func TestCombine_NoComparison(t *testing.T) {
	got := Combine(makeSeries(1, 2), nil, win(0, 2))
	for i, p := range got {
		if p.Comparison != nil {
			t.Errorf("point %d has comparison %v", i, *p.Comparison)
		}
	}
}

func TestSummarize(t *testing.T) {
	if _, ok := Summarize(nil); ok {
		t.Error("empty series should not summarize")
	}

	info, ok := Summarize(makeSeries(3900))
	if !ok || info.Price != 3900 || info.Change != 0 || info.ChangePercent != 0 {
		t.Errorf("single point: %+v", info)
	}

	info, _ = Summarize(makeSeries(3800, 4000, 3900))
	if info.Price != 3900 || info.Change != -100 {
		t.Errorf("three points: %+v", info)
	}
	if math.Abs(info.ChangePercent-(-2.5)) > 1e-9 {
		t.Errorf("percent = %f, want -2.5", info.ChangePercent)
	}

	info, _ = Summarize(makeSeries(0, 5))
	if info.Change != 5 || info.ChangePercent != 0 {
		t.Errorf("zero previous close: %+v", info)
	}
}

func TestVisible_IgnoresComparisonWhenNone(t *testing.T) {
	snap := model.Snapshot{
		Comparison:       model.ComparisonNone,
		Series:           makeSeries(10, 11, 12),
		ComparisonSeries: makeSeries(100, 101, 102),
		Window:           win(0, 3),
	}
	for i, p := range Visible(snap) {
		if p.Comparison != nil {
			t.Errorf("point %d carries comparison %v with selection NONE", i, *p.Comparison)
		}
	}

	snap.Comparison = model.ComparisonSoy
	got := Visible(snap)
	if len(got) != 3 || got[2].Comparison == nil || *got[2].Comparison != 102 {
		t.Errorf("Visible with SOY = %+v", got)
	}
}
