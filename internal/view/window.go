// Package view holds the pure window-navigation functions over a series
// of length n. Every function returns a new Window and never fails; a
// command that cannot apply returns its input unchanged.
package view

import "github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"

// stepFraction is the share of the visible width moved by one zoom or pan step.
const stepFraction = 0.1

// Op names a navigation command.
type Op string

const (
	OpZoomIn   Op = "zoom-in"
	OpZoomOut  Op = "zoom-out"
	OpPanLeft  Op = "pan-left"
	OpPanRight Op = "pan-right"
	OpReset    Op = "reset"
)

// ParseOp maps a command name to an Op. Returns false for unknown names.
func ParseOp(s string) (Op, bool) {
	switch Op(s) {
	case OpZoomIn, OpZoomOut, OpPanLeft, OpPanRight, OpReset:
		return Op(s), true
	}
	return "", false
}

// Apply runs op against w for a series of length n.
func Apply(op Op, w model.Window, n int) model.Window {
	switch op {
	case OpZoomIn:
		return ZoomIn(w, n)
	case OpZoomOut:
		return ZoomOut(w, n)
	case OpPanLeft:
		return PanLeft(w, n)
	case OpPanRight:
		return PanRight(w, n)
	case OpReset:
		return Reset(n)
	}
	return w
}

// Reset returns the full-series window [0, n].
func Reset(n int) model.Window {
	if n < 0 {
		n = 0
	}
	return model.Window{Start: 0, End: n}
}

// Clamp normalizes w into [0, n] with Start <= End.
func Clamp(w model.Window, n int) model.Window {
	if n < 0 {
		n = 0
	}
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > n {
		w.End = n
	}
	if w.Start > n {
		w.Start = n
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	return w
}

// ZoomIn narrows the window by floor(width*0.1) on each side.
// No-op once the width is at or below model.MinVisible.
func ZoomIn(w model.Window, n int) model.Window {
	w = Clamp(w, n)
	width := w.Width()
	if width <= model.MinVisible {
		return w
	}
	step := int(float64(width) * stepFraction)
	out := model.Window{Start: w.Start + step, End: w.End - step}
	if out.Width() < model.MinVisible {
		// Departs from a plain floor(width*0.1) shrink: keep at least
		// MinVisible bars, centred where the shrink would land.
		mid := w.Start + width/2
		out.Start = mid - model.MinVisible/2
		out.End = out.Start + model.MinVisible
	}
	return out
}

// ZoomOut widens the window by floor(width*0.1) on each side, clamped to [0, n].
func ZoomOut(w model.Window, n int) model.Window {
	w = Clamp(w, n)
	step := int(float64(w.Width()) * stepFraction)
	return Clamp(model.Window{Start: w.Start - step, End: w.End + step}, n)
}

// panStep is max(1, floor(width*0.1)).
func panStep(width int) int {
	s := int(float64(width) * stepFraction)
	if s < 1 {
		return 1
	}
	return s
}

// PanLeft shifts the window towards index 0, preserving width.
func PanLeft(w model.Window, n int) model.Window {
	w = Clamp(w, n)
	width := w.Width()
	start := w.Start - panStep(width)
	if start < 0 {
		start = 0
	}
	return Clamp(model.Window{Start: start, End: start + width}, n)
}

// PanRight shifts the window towards index n, preserving width.
func PanRight(w model.Window, n int) model.Window {
	w = Clamp(w, n)
	width := w.Width()
	end := w.End + panStep(width)
	if end > n {
		end = n
	}
	return Clamp(model.Window{Start: end - width, End: end}, n)
}

// CapabilitiesOf reports which commands would have an effect on w.
func CapabilitiesOf(w model.Window, n int) model.Capabilities {
	return model.Capabilities{
		CanZoomIn:   w.Width() > model.MinVisible,
		CanZoomOut:  w.Start > 0 || w.End < n,
		CanPanLeft:  w.Start > 0,
		CanPanRight: w.End < n,
	}
}
