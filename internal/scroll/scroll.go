// Package scroll maps scroll geometry to a frame index.
package scroll

import "math"

// Rect is an element's bounding box relative to the viewport's top edge.
type Rect struct {
	Top    float64
	Bottom float64
	Height float64
}

// SectionProgress is how far a section has travelled through the viewport:
// 0 when its top edge meets the viewport's bottom edge, 1 when its bottom
// edge meets the viewport's top edge.
func SectionProgress(r Rect, viewportHeight float64) float64 {
	return clamp01((viewportHeight - r.Top) / (r.Height + viewportHeight))
}

// DocumentProgress is scrollY as a fraction of the scrollable range.
// A document that fits in the viewport has progress 0.
func DocumentProgress(scrollY, documentHeight, viewportHeight float64) float64 {
	maxScroll := documentHeight - viewportHeight
	if !(maxScroll > 0) {
		return 0
	}
	return clamp01(scrollY / maxScroll)
}

// SectionTarget maps a section's position to a frame in [0, frameCount-1].
// Sections above the viewport show the first frame, sections below it the last.
func SectionTarget(r Rect, viewportHeight float64, frameCount int) int {
	if frameCount <= 1 {
		return 0
	}
	if r.Bottom <= 0 {
		return 0
	}
	if r.Top >= viewportHeight {
		return frameCount - 1
	}
	return Frame(SectionProgress(r, viewportHeight), frameCount)
}

// DocumentTarget maps the document scroll offset to a frame in [0, frameCount-1].
func DocumentTarget(scrollY, documentHeight, viewportHeight float64, frameCount int) int {
	if frameCount <= 1 {
		return 0
	}
	return Frame(DocumentProgress(scrollY, documentHeight, viewportHeight), frameCount)
}

// Frame converts progress to a frame index, flooring and clamping.
func Frame(progress float64, frameCount int) int {
	if frameCount <= 1 {
		return 0
	}
	f := int(math.Floor(clamp01(progress) * float64(frameCount-1)))
	return min(max(f, 0), frameCount-1)
}

// clamp01 also maps NaN to 0.
func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
