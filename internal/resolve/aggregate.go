package resolve

import (
	"fmt"

	"github.com/roach88/sift/internal/expr"
)

// Aggregate function names recognized by the resolver. Calls to these stay
// symbolic through resolution and are computed per group by the backend.
const (
	AggMean  = "mean"
	AggSum   = "sum"
	AggMin   = "min"
	AggMax   = "max"
	AggCount = "n"
)

var aggregateFuncs = map[string]bool{
	AggMean:  true,
	AggSum:   true,
	AggMin:   true,
	AggMax:   true,
	AggCount: true,
}

// IsAggregate reports whether name is a known aggregate function.
func IsAggregate(name string) bool { return aggregateFuncs[name] }

// HasAggregate reports whether e contains an aggregate call anywhere.
func HasAggregate(e expr.Expr) bool {
	found := false
	expr.Walk(e, func(n expr.Expr) bool {
		if call, ok := n.(expr.Call); ok && IsAggregate(call.Func) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Aggregate computes an aggregate function over a column of values.
// Null values do not participate; an all-null (or empty) input yields Null
// for everything except n, which counts rows including nulls.
func Aggregate(fn string, values []expr.Value) (expr.Value, error) {
	if fn == AggCount {
		return expr.Int(len(values)), nil
	}

	var nums []float64
	allInt := true
	for _, v := range values {
		if _, isNull := v.(expr.Null); isNull {
			continue
		}
		f, ok := expr.AsFloat(v)
		if !ok {
			// min/max also work over strings.
			if fn == AggMin || fn == AggMax {
				return aggregateOrdered(fn, values), nil
			}
			return nil, fmt.Errorf("%s: numeric column required, got %s", fn, expr.Format(v))
		}
		if _, isInt := v.(expr.Int); !isInt {
			allInt = false
		}
		nums = append(nums, f)
	}
	if len(nums) == 0 {
		return expr.Null{}, nil
	}

	switch fn {
	case AggMean:
		total := 0.0
		for _, f := range nums {
			total += f
		}
		return expr.Float(total / float64(len(nums))), nil
	case AggSum:
		total := 0.0
		for _, f := range nums {
			total += f
		}
		if allInt {
			return expr.Int(int64(total)), nil
		}
		return expr.Float(total), nil
	case AggMin, AggMax:
		best := nums[0]
		for _, f := range nums[1:] {
			if (fn == AggMin && f < best) || (fn == AggMax && f > best) {
				best = f
			}
		}
		if allInt {
			return expr.Int(int64(best)), nil
		}
		return expr.Float(best), nil
	default:
		return nil, fmt.Errorf("unknown aggregate %s()", fn)
	}
}

// aggregateOrdered handles min/max over non-numeric values using the
// cross-kind Compare ordering. Nulls are skipped.
func aggregateOrdered(fn string, values []expr.Value) expr.Value {
	var best expr.Value
	for _, v := range values {
		if _, isNull := v.(expr.Null); isNull {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		c := expr.Compare(v, best)
		if (fn == AggMin && c < 0) || (fn == AggMax && c > 0) {
			best = v
		}
	}
	if best == nil {
		return expr.Null{}
	}
	return best
}
