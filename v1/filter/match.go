package filter

import "cmp"

// Matches evaluates the expression against a metadata object in memory with
// the same typed semantics as the compiled SQL predicate. It is used by tests
// as the reference for what the store must select, and by callers that hold
// documents locally.
func (e Expression) Matches(metadata map[string]any) bool {
	for _, c := range e.Conditions {
		if !c.matches(metadata) {
			return false
		}
	}
	return true
}

// Matches reports whether metadata satisfies the filter object f.
// Invalid filters match nothing.
func Matches(f map[string]any, metadata map[string]any) bool {
	expr, err := Parse(f)
	if err != nil {
		return false
	}
	return expr.Matches(metadata)
}

func (c Condition) matches(metadata map[string]any) bool {
	c, err := c.normalized()
	if err != nil {
		return false
	}

	raw, found := lookup(metadata, c.Path())
	var value any
	var isScalar bool
	if found {
		value, isScalar = scalar(raw)
	}

	switch c.Op {
	case OpEq:
		return isScalar && equal(value, c.Value)
	case OpNe:
		return !(isScalar && equal(value, c.Value))
	case OpIn:
		if !isScalar {
			return false
		}
		for _, v := range c.Values {
			if equal(value, v) {
				return true
			}
		}
		return false
	}

	if !isScalar {
		return false
	}
	order, ok := compare(value, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return order > 0
	case OpGte:
		return order >= 0
	case OpLt:
		return order < 0
	case OpLte:
		return order <= 0
	}
	return false
}

// lookup walks nested objects along path. Only objects are descended into.
func lookup(metadata map[string]any, path []string) (any, bool) {
	var cur any = metadata
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func equal(a, b any) bool {
	order, ok := compare(a, b)
	return ok && order == 0
}

// compare orders two normalized scalars of the same JSON type. Values of
// different types are not comparable.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, y), true
		case float64:
			return cmp.Compare(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return cmp.Compare(x, float64(y)), true
		case float64:
			return cmp.Compare(x, y), true
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}
