package db

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
)

// Dialect renders Postgres SQL with $n placeholders.
var Dialect = goqu.Dialect("postgres")

func From(table string) *goqu.SelectDataset {
	return Dialect.From(table).Prepared(true)
}

func Insert(table string) *goqu.InsertDataset {
	return Dialect.Insert(table).Prepared(true)
}

func Update(table string) *goqu.UpdateDataset {
	return Dialect.Update(table).Prepared(true)
}

// Count returns the total row count of ds ignoring ordering and paging.
func Count(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.ClearOrder().ClearLimit().ClearOffset().Select(goqu.COUNT(goqu.Star()))
}

// Page runs the count and page queries for ds and scans each row with scan.
func Page[T any](ctx context.Context, q Querier, ds *goqu.SelectDataset, scan func(pgx.Row) (T, error)) ([]T, int, error) {
	countSQL, countArgs, err := Count(ds).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}
