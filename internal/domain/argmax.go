package domain

import "cmp"

// ArgmaxResult is the outcome of ArgmaxWithTies.
type ArgmaxResult[T any, V cmp.Ordered] struct {
	// Best is the winning value; it is the zero value when Winners is empty.
	Best V

	// Winners lists every item equal to Best, in input order.
	Winners []T
}

// Found reports whether any item qualified.
func (r ArgmaxResult[T, V]) Found() bool { return len(r.Winners) > 0 }

// ArgmaxWithTies returns every item sharing the largest key. key reports
// false for items that should not compete. A strictly larger value resets
// the winner list; an equal value joins it.
//
// Example:
//
//	res := ArgmaxWithTies(reports, func(r PointsReport) (int, bool) {
//	    return r.BonusPoints, true
//	})
func ArgmaxWithTies[T any, V cmp.Ordered](items []T, key func(T) (V, bool)) ArgmaxResult[T, V] {
	var res ArgmaxResult[T, V]
	for _, item := range items {
		v, ok := key(item)
		if !ok {
			continue
		}
		switch {
		case len(res.Winners) == 0 || v > res.Best:
			res.Best = v
			res.Winners = []T{item}
		case v == res.Best:
			res.Winners = append(res.Winners, item)
		}
	}
	return res
}
