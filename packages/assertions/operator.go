package assertions

import (
	"fmt"
	"strings"
)

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpNotIncludes
	OpIn
	OpNotIn
	OpType
)

func (op Operator) String() string {
	switch op {
	case OpEquals:
		return "=="
	case OpNotEquals:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpContains:
		return "contains"
	case OpNotContains:
		return "!contains"
	case OpStartsWith:
		return "startsWith"
	case OpEndsWith:
		return "endsWith"
	case OpMatches:
		return "matches"
	case OpExists:
		return "exists"
	case OpNotExists:
		return "!exists"
	case OpLength:
		return "length"
	case OpIncludes:
		return "includes"
	case OpNotIncludes:
		return "!includes"
	case OpIn:
		return "in"
	case OpNotIn:
		return "!in"
	case OpType:
		return "type"
	default:
		return "unknown"
	}
}

// NeedsValue reports whether the operator compares against an expected value.
func (op Operator) NeedsValue() bool {
	return op != OpExists && op != OpNotExists
}

var operatorNames = map[string]Operator{
	"==":          OpEquals,
	"equals":      OpEquals,
	"eq":          OpEquals,
	"!=":          OpNotEquals,
	"notequals":   OpNotEquals,
	"ne":          OpNotEquals,
	">":           OpGreaterThan,
	"gt":          OpGreaterThan,
	">=":          OpGreaterOrEqual,
	"gte":         OpGreaterOrEqual,
	"<":           OpLessThan,
	"lt":          OpLessThan,
	"<=":          OpLessOrEqual,
	"lte":         OpLessOrEqual,
	"contains":    OpContains,
	"!contains":   OpNotContains,
	"notcontains": OpNotContains,
	"startswith":  OpStartsWith,
	"endswith":    OpEndsWith,
	"matches":     OpMatches,
	"exists":      OpExists,
	"!exists":     OpNotExists,
	"notexists":   OpNotExists,
	"length":      OpLength,
	"includes":    OpIncludes,
	"!includes":   OpNotIncludes,
	"notincludes": OpNotIncludes,
	"in":          OpIn,
	"!in":         OpNotIn,
	"notin":       OpNotIn,
	"type":        OpType,
}

// ParseOperator accepts the symbolic form ("==", ">=") or the word form
// ("equals", "startsWith"), case-insensitively.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown operator: %q", s)
	}
	return op, nil
}
