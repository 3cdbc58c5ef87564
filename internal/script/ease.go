package script

import "github.com/fogleman/ease"

const (
	EaseLinear     = "linear"
	EaseInOutQuad  = "in-out-quad"
	EaseInOutCubic = "in-out-cubic"
	EaseOutCubic   = "out-cubic"
	EaseInOutSine  = "in-out-sine"
)

// An empty name is the default smooth in-out curve.
var curves = map[string]func(float64) float64{
	"":             ease.InOutCubic,
	EaseLinear:     ease.Linear,
	EaseInOutQuad:  ease.InOutQuad,
	EaseInOutCubic: ease.InOutCubic,
	EaseOutCubic:   ease.OutCubic,
	EaseInOutSine:  ease.InOutSine,
}

func curve(name string) func(float64) float64 {
	if f, ok := curves[name]; ok {
		return f
	}
	return ease.InOutCubic
}

// Position calculates the scroll offset at a given time by interpolating between keyframes
func Position(keyframes []Keyframe, t float64) float64 {
	if len(keyframes) == 0 {
		return 0
	}

	first, last := keyframes[0], keyframes[len(keyframes)-1]
	if t <= first.Time {
		return first.Scroll
	}
	if t >= last.Time {
		return last.Scroll
	}

	i := 1
	for i < len(keyframes)-1 && t >= keyframes[i].Time {
		i++
	}
	prev, next := keyframes[i-1], keyframes[i]

	span := next.Time - prev.Time
	if span <= 0 {
		return next.Scroll
	}
	f := curve(next.Ease)((t - prev.Time) / span)

	return lerp(prev.Scroll, next.Scroll, f)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
