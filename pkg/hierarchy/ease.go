package hierarchy

// EaseFunc maps normalized time in [0,1] to progress in [0,1].
type EaseFunc func(t float64) float64

// EaseLinear is the identity easing.
func EaseLinear(t float64) float64 {
	return t
}

// EaseCubicInOut is symmetric cubic easing, the default for zoom transitions.
func EaseCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
