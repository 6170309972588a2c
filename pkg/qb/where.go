package qb

import (
	"fmt"
	"strings"
)

// Operator is a SQL comparison operator.
type Operator string

const (
	OpEqual     Operator = "="
	OpNotEqual  Operator = "!="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpIn        Operator = "IN"
	OpLike      Operator = "LIKE"
	OpILike     Operator = "ILIKE"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// Logic joins consecutive conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition is a single WHERE predicate, or a parenthesized group.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Values   []any // for IN
	Logic    Logic
	Group    []Condition
}

// Eq creates column = value.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value, Logic: LogicAnd}
}

// NotEq creates column != value.
func NotEq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpNotEqual, Value: value, Logic: LogicAnd}
}

// Gt creates column > value.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGt, Value: value, Logic: LogicAnd}
}

// Gte creates column >= value.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGte, Value: value, Logic: LogicAnd}
}

// Lt creates column < value.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLt, Value: value, Logic: LogicAnd}
}

// Lte creates column <= value.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLte, Value: value, Logic: LogicAnd}
}

// In creates column IN (values...).
func In(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpIn, Values: values, Logic: LogicAnd}
}

// Like creates column LIKE pattern.
func Like(column, pattern string) Condition {
	return Condition{Column: column, Operator: OpLike, Value: pattern, Logic: LogicAnd}
}

// ILike creates column ILIKE pattern (case-insensitive).
func ILike(column, pattern string) Condition {
	return Condition{Column: column, Operator: OpILike, Value: pattern, Logic: LogicAnd}
}

// IsNull creates column IS NULL.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNull, Logic: LogicAnd}
}

// IsNotNull creates column IS NOT NULL.
func IsNotNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNotNull, Logic: LogicAnd}
}

// Or marks a condition to be joined with OR instead of AND.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Group parenthesizes a set of conditions.
func Group(conditions ...Condition) Condition {
	return Condition{Group: conditions, Logic: LogicAnd}
}

// buildWhere renders conditions into a WHERE clause. paramStart numbers the
// first placeholder. Returns "" when there are no conditions.
func buildWhere(conditions []Condition, paramStart int) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	sql, args, err := renderConditions(conditions, paramStart)
	if err != nil {
		return "", nil, err
	}
	return "WHERE " + sql, args, nil
}

func renderConditions(conditions []Condition, paramStart int) (string, []any, error) {
	var parts []string
	var args []any
	paramNum := paramStart

	for i, cond := range conditions {
		var sql string
		var condArgs []any
		var err error

		if len(cond.Group) > 0 {
			sql, condArgs, err = renderConditions(cond.Group, paramNum)
			sql = "(" + sql + ")"
		} else {
			sql, condArgs, err = renderCondition(cond, paramNum)
		}
		if err != nil {
			return "", nil, err
		}

		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			parts = append(parts, string(logic))
		}
		parts = append(parts, sql)
		args = append(args, condArgs...)
		paramNum += len(condArgs)
	}

	return strings.Join(parts, " "), args, nil
}

func renderCondition(cond Condition, paramNum int) (string, []any, error) {
	switch cond.Operator {
	case OpEqual, OpNotEqual, OpGt, OpGte, OpLt, OpLte, OpLike, OpILike:
		return fmt.Sprintf("%s %s $%d", cond.Column, cond.Operator, paramNum), []any{cond.Value}, nil

	case OpIn:
		if len(cond.Values) == 0 {
			return "", nil, fmt.Errorf("IN condition on %s has no values", cond.Column)
		}
		placeholders := make([]string, len(cond.Values))
		for i := range cond.Values {
			placeholders[i] = fmt.Sprintf("$%d", paramNum+i)
		}
		return fmt.Sprintf("%s IN (%s)", cond.Column, strings.Join(placeholders, ", ")), cond.Values, nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", cond.Column, cond.Operator), nil, nil

	default:
		return "", nil, fmt.Errorf("unknown operator: %s", cond.Operator)
	}
}
