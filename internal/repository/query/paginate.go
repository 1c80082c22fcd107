package query

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// Source описывает выборку: колонки, FROM с join'ами и сортировку
type Source struct {
	Columns string
	From    string
	OrderBy string
}

// Statements пара запросов страницы с общими условиями
type Statements struct {
	CountSQL  string
	CountArgs []any
	PageSQL   string
	PageArgs  []any
}

// Build рендерит COUNT и страничный SELECT для одного и того же фильтра
func Build(src Source, f Filter, req model.PageRequest) Statements {
	req = req.Normalize()
	where, args := f.Render()

	n := len(args)
	pageArgs := make([]any, 0, n+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, req.Limit, req.Offset())

	return Statements{
		CountSQL:  "SELECT COUNT(*) FROM " + src.From + where,
		CountArgs: args,
		PageSQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
			src.Columns, src.From, where, src.OrderBy, n+1, n+2),
		PageArgs: pageArgs,
	}
}

// Paginate выполняет подсчёт и выборку страницы
func Paginate[T any](
	ctx context.Context,
	q base.Querier,
	src Source,
	f Filter,
	req model.PageRequest,
	scan func(row pgx.Row) (T, error),
) (*model.Page[T], error) {
	st := Build(src, f, req)

	var total int
	if err := q.QueryRow(ctx, st.CountSQL, st.CountArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	rows, err := q.Query(ctx, st.PageSQL, st.PageArgs...)
	if err != nil {
		return nil, fmt.Errorf("select page: %w", err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return model.NewPage(items, total, req), nil
}
