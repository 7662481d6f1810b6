package filter

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// MetadataColumn is the JSONB column predicates are evaluated against.
const MetadataColumn = "metadata"

// Predicate is a parameterized SQL boolean expression using ? placeholders.
// Args are in placeholder order.
type Predicate struct {
	SQL  string
	Args []any
}

// Empty reports whether the predicate restricts nothing.
func (p Predicate) Empty() bool {
	return p.SQL == ""
}

// Compile parses a filter object and compiles it into a predicate.
// An empty filter yields an empty predicate.
func Compile(f map[string]any) (Predicate, error) {
	expr, err := Parse(f)
	if err != nil {
		return Predicate{}, err
	}
	return expr.Compile()
}

// Compile turns the expression into a predicate over MetadataColumn.
//
// Metadata keys and literals are always bound, never interpolated. Each
// literal is cast to the SQL type matching its Go type so numbers compare as
// numbers and strings compare byte-wise:
//
//	{"price": {"$gte": 100}}
//	→ (jsonb_typeof(metadata -> ?::text) = 'number' AND (metadata -> ?::text #>> '{}')::numeric >= ?::numeric)
//	  args: ["price", "price", 100]
func (e Expression) Compile() (Predicate, error) {
	if e.IsEmpty() {
		return Predicate{}, nil
	}

	fragments := make([]string, 0, len(e.Conditions))
	var args []any
	for _, cond := range e.Conditions {
		frag, fragArgs, err := compileCondition(cond)
		if err != nil {
			return Predicate{}, err
		}
		fragments = append(fragments, frag)
		args = append(args, fragArgs...)
	}

	return Predicate{SQL: strings.Join(fragments, " AND "), Args: args}, nil
}

func compileCondition(c Condition) (string, []any, error) {
	if err := validateField(c.Field); err != nil {
		return "", nil, err
	}
	if !c.Op.valid() {
		return "", nil, invalid(c.Field, fmt.Sprintf("unsupported operator %s", c.Op))
	}
	c, err := c.normalized()
	if err != nil {
		return "", nil, err
	}

	path := c.Path()
	b := &builder{path: path}

	switch c.Op {
	case OpIn:
		if len(c.Values) == 0 {
			return "FALSE", nil, nil
		}
		b.bindPath()
		members := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			lit, err := b.jsonLiteral(c.Field, v)
			if err != nil {
				return "", nil, err
			}
			members = append(members, lit)
		}
		return fmt.Sprintf("(%s IN (%s))", pathSQL(len(path)), strings.Join(members, ", ")), b.args, nil

	case OpEq:
		b.bindPath()
		lit, err := b.jsonLiteral(c.Field, c.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s = %s)", pathSQL(len(path)), lit), b.args, nil

	case OpNe:
		b.bindPath()
		b.bindPath()
		lit, err := b.jsonLiteral(c.Field, c.Value)
		if err != nil {
			return "", nil, err
		}
		p := pathSQL(len(path))
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", p, p, lit), b.args, nil
	}

	// ordered comparison
	sqlType, jsonType, err := literalTypes(c.Field, c.Value)
	if err != nil {
		return "", nil, err
	}
	b.bindPath()
	b.bindPath()
	b.args = append(b.args, c.Value)

	p := pathSQL(len(path))
	text := fmt.Sprintf("(%s #>> '{}')", p)
	if sqlType == "text" {
		text = text + ` COLLATE "C"`
	} else {
		text = fmt.Sprintf("%s::%s", text, sqlType)
	}
	return fmt.Sprintf("(jsonb_typeof(%s) = '%s' AND %s %s ?::%s)",
		p, jsonType, text, sqlOperator(c.Op), sqlType), b.args, nil
}

type builder struct {
	path []string
	args []any
}

func (b *builder) bindPath() {
	for _, seg := range b.path {
		b.args = append(b.args, seg)
	}
}

// jsonLiteral binds v and returns the to_jsonb expression for it.
func (b *builder) jsonLiteral(field string, v any) (string, error) {
	sqlType, _, err := literalTypes(field, v)
	if err != nil {
		return "", err
	}
	b.args = append(b.args, v)
	return fmt.Sprintf("to_jsonb(?::%s)", sqlType), nil
}

// pathSQL renders metadata -> ?::text -> ?::text for a path of n segments.
func pathSQL(n int) string {
	var sb strings.Builder
	sb.WriteString(MetadataColumn)
	for i := 0; i < n; i++ {
		sb.WriteString(" -> ?::text")
	}
	return sb.String()
}

// literalTypes returns the SQL cast and jsonb_typeof name for a normalized literal.
func literalTypes(field string, v any) (sqlType, jsonType string, err error) {
	switch v.(type) {
	case int64, float64:
		return "numeric", "number", nil
	case string:
		return "text", "string", nil
	case bool:
		return "boolean", "boolean", nil
	default:
		return "", "", &vectordb.ValidationError{
			Field:  "filter." + field,
			Reason: fmt.Sprintf("unsupported literal type %T", v),
		}
	}
}

func sqlOperator(op Operator) string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "="
	}
}
