package filter

import (
	"fmt"

	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// Operator is one of the comparison operators a filter may use.
// The set is closed: anything else is rejected by ParseOperator.
type Operator int

const (
	// OpEq matches a field equal to the literal (also the implicit operator)
	OpEq Operator = iota
	// OpNe matches a field that is missing or not equal to the literal
	OpNe
	// OpGt matches a field strictly greater than the literal
	OpGt
	// OpGte matches a field greater than or equal to the literal
	OpGte
	// OpLt matches a field strictly less than the literal
	OpLt
	// OpLte matches a field less than or equal to the literal
	OpLte
	// OpIn matches a field equal to any member of a list
	OpIn
)

var operatorNames = [...]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpIn:  "$in",
}

// ParseOperator maps "$eq", "$ne", "$gt", "$gte", "$lt", "$lte" and "$in" to an Operator.
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return Operator(op), nil
		}
	}
	return 0, &vectordb.ValidationError{
		Field:  "filter",
		Reason: fmt.Sprintf("unsupported operator %q", s),
	}
}

func (o Operator) String() string {
	if o.valid() {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

func (o Operator) valid() bool {
	return o >= OpEq && o <= OpIn
}

// ordered reports whether the operator is a range comparison.
func (o Operator) ordered() bool {
	return o == OpGt || o == OpGte || o == OpLt || o == OpLte
}
