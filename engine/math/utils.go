package math

import "golang.org/x/exp/constraints"

// Clamp returns f limited to [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	return min(max(f, low), high)
}

// Lerp maps t in [0,1] onto [a, b]. t outside that range extrapolates.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + t*(b-a)
}
