package common

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

func Min[T constraints.Ordered](l, r T) T {
	if l < r {
		return l
	}
	return r
}

func Max[T constraints.Ordered](l, r T) T {
	if l > r {
		return l
	}
	return r
}

func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SaturatingSub returns a-b, never below floor.
func SaturatingSub[T constraints.Integer](a, b, floor T) T {
	if a < floor+b {
		return floor
	}
	return a - b
}

func Let[T any](ok bool, yes, no T) T {
	if ok {
		return yes
	}
	return no
}

// Lerp interpolates y over [x1, x2] -> [y1, y2].
func Lerp[T Number](x, x1, x2, y1, y2 T) T {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}
