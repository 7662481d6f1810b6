package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// Condition compares one metadata field against a literal.
//
// Value holds the literal for every operator except OpIn, which uses Values.
// Literals are normalized to int64, float64, string or bool.
type Condition struct {
	Field  string
	Op     Operator
	Value  any
	Values []any
}

// Path splits a dotted field name into its nested object keys.
func (c Condition) Path() []string {
	return strings.Split(c.Field, ".")
}

// Expression is a conjunction of conditions. The zero value matches every document.
type Expression struct {
	Conditions []Condition
}

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.Conditions) == 0
}

// Parse builds an Expression from a MongoDB-style filter object.
//
// A literal value is an implicit $eq; an object value must contain only
// operators. Keys and operators are sorted so that equal filters produce
// identical expressions.
//
//	expr, err := filter.Parse(map[string]any{
//	    "genre": "fiction",
//	    "price": map[string]any{"$gte": 100, "$lte": 200},
//	})
func Parse(f map[string]any) (Expression, error) {
	if len(f) == 0 {
		return Expression{}, nil
	}

	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var expr Expression
	for _, field := range fields {
		if err := validateField(field); err != nil {
			return Expression{}, err
		}

		ops, isOpMap := asObject(f[field])
		if !isOpMap {
			lit, err := normalizeLiteral(field, f[field])
			if err != nil {
				return Expression{}, err
			}
			expr.Conditions = append(expr.Conditions, Condition{Field: field, Op: OpEq, Value: lit})
			continue
		}

		if len(ops) == 0 {
			return Expression{}, invalid(field, "operator object is empty")
		}

		conds := make([]Condition, 0, len(ops))
		for name, raw := range ops {
			op, err := ParseOperator(name)
			if err != nil {
				return Expression{}, invalid(field, fmt.Sprintf("unsupported operator %q", name))
			}
			cond, err := newCondition(field, op, raw)
			if err != nil {
				return Expression{}, err
			}
			conds = append(conds, cond)
		}
		sort.Slice(conds, func(i, j int) bool { return conds[i].Op < conds[j].Op })
		expr.Conditions = append(expr.Conditions, conds...)
	}

	return expr, nil
}

// ParseJSON decodes a JSON filter object and parses it. Numbers keep their
// integer or floating point form.
func ParseJSON(data []byte) (Expression, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Expression{}, &vectordb.ValidationError{Field: "filter", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return Parse(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expression) UnmarshalJSON(data []byte) error {
	expr, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

func newCondition(field string, op Operator, raw any) (Condition, error) {
	if op != OpIn {
		lit, err := normalizeLiteral(field, raw)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: lit}, nil
	}

	items, ok := asList(raw)
	if !ok {
		return Condition{}, invalid(field, fmt.Sprintf("$in expects a list, got %T", raw))
	}
	values := make([]any, 0, len(items))
	for _, item := range items {
		lit, err := normalizeLiteral(field, item)
		if err != nil {
			return Condition{}, err
		}
		values = append(values, lit)
	}
	return Condition{Field: field, Op: OpIn, Values: values}, nil
}

// normalized returns a copy of c with its literals normalized, so that
// hand-built conditions behave like parsed ones.
func (c Condition) normalized() (Condition, error) {
	if c.Op != OpIn {
		lit, err := normalizeLiteral(c.Field, c.Value)
		if err != nil {
			return Condition{}, err
		}
		c.Value = lit
		return c, nil
	}
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		lit, err := normalizeLiteral(c.Field, v)
		if err != nil {
			return Condition{}, err
		}
		values[i] = lit
	}
	c.Values = values
	return c, nil
}

func validateField(field string) error {
	if field == "" {
		return invalid(field, "field name cannot be empty")
	}
	for _, seg := range strings.Split(field, ".") {
		if seg == "" {
			return invalid(field, "field path has an empty segment")
		}
	}
	return nil
}

// ── Literal normalization ───────────────────────────────────────────────────

// normalizeLiteral converts a filter literal to int64, float64, string or bool.
func normalizeLiteral(field string, v any) (any, error) {
	lit, ok := scalar(v)
	if !ok {
		if v == nil {
			return nil, invalid(field, "null literals are not supported")
		}
		return nil, invalid(field, fmt.Sprintf("unsupported literal type %T", v))
	}
	if f, isFloat := lit.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil, invalid(field, "number must be finite")
	}
	return lit, nil
}

// scalar normalizes v when it is a JSON scalar other than null.
func scalar(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return t, true
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return fromUint(uint64(t)), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return fromUint(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func fromUint(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case vectordb.Filter:
		return t, true
	default:
		return nil, false
	}
}

func asList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func invalid(field, reason string) error {
	if field == "" {
		return &vectordb.ValidationError{Field: "filter", Reason: reason}
	}
	return &vectordb.ValidationError{Field: "filter." + field, Reason: reason}
}
