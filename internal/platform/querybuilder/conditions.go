package querybuilder

import "strings"

// Condition is one predicate of a WHERE clause.
type Condition interface {
	render(w *writer)
}

type conditionFunc func(w *writer)

func (f conditionFunc) render(w *writer) { f(w) }

func compare(column, op string, value any) Condition {
	return conditionFunc(func(w *writer) {
		w.raw(column, " ", op, " ")
		w.bind(value)
	})
}

func Eq(column string, value any) Condition {
	return compare(column, "=", value)
}

// ILike matches column case-insensitively against %term%, with LIKE
// wildcards in term escaped.
func ILike(column, term string) Condition {
	return compare(column, "ILIKE", "%"+likeEscaper.Replace(term)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// In renders column IN (...). An empty list renders as false.
func In[T any](column string, values []T) Condition {
	return conditionFunc(func(w *writer) {
		if len(values) == 0 {
			w.raw("1=0")
			return
		}
		w.raw(column, " IN (")
		for i, v := range values {
			if i > 0 {
				w.raw(", ")
			}
			w.bind(v)
		}
		w.raw(")")
	})
}

// Expr embeds raw SQL, binding each '?' to the next arg.
func Expr(expr string, args ...any) Condition {
	return conditionFunc(func(w *writer) {
		w.expr(expr, args)
	})
}

// Any joins conditions with OR inside parentheses. An empty Any is false.
func Any(conditions ...Condition) Condition {
	return conditionFunc(func(w *writer) {
		if len(conditions) == 0 {
			w.raw("1=0")
			return
		}
		w.raw("(")
		for i, c := range conditions {
			if i > 0 {
				w.raw(" OR ")
			}
			c.render(w)
		}
		w.raw(")")
	})
}
