// Package query собирает WHERE-условия и постраничные выборки.
//
// Filter неизменяемый: каждый вызов Where возвращает новое значение, поэтому
// один фильтр можно безопасно переиспользовать и расширять из разных запросов.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter набор условий, объединяемых через AND.
// В условиях используются плейсхолдеры "?", при рендеринге они нумеруются как $1, $2...
type Filter struct {
	conds []string
	args  []any
}

// Where возвращает новый фильтр с добавленным условием.
// Число "?" в cond должно совпадать с числом args.
func (f Filter) Where(cond string, args ...any) Filter {
	if n := strings.Count(cond, "?"); n != len(args) {
		panic(fmt.Sprintf("query: condition %q has %d placeholders but %d args", cond, n, len(args)))
	}

	conds := make([]string, len(f.conds), len(f.conds)+1)
	copy(conds, f.conds)

	allArgs := make([]any, len(f.args), len(f.args)+len(args))
	copy(allArgs, f.args)

	return Filter{
		conds: append(conds, cond),
		args:  append(allArgs, args...),
	}
}

// WhereIn добавляет "column IN (...)"; пустой список не меняет фильтр
func (f Filter) WhereIn(column string, values ...any) Filter {
	if len(values) == 0 {
		return f
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return f.Where(column+" IN ("+placeholders+")", values...)
}

// Len количество условий
func (f Filter) Len() int {
	return len(f.conds)
}

// Render возвращает " WHERE ..." (или пустую строку) и аргументы
func (f Filter) Render() (string, []any) {
	if len(f.conds) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(" WHERE ")
	n := 0
	for i, cond := range f.conds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		for _, r := range cond {
			if r == '?' {
				n++
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
				continue
			}
			b.WriteRune(r)
		}
	}

	args := make([]any, len(f.args))
	copy(args, f.args)
	return b.String(), args
}
