package postgres

import (
	"context"
	"fmt"
)

// Execute runs a statement with ? placeholders and returns every produced
// row as a column → value map. Text-like values are returned as string.
// Errors are passed through TranslateError.
//
// Example:
//
//	rows, err := pg.Execute(ctx,
//	    "SELECT id, metadata::text AS metadata FROM docs WHERE namespace = ?",
//	    []any{"default"},
//	)
func (p *Postgres) Execute(ctx context.Context, statement string, args []any) ([]map[string]any, error) {
	rows, err := p.DB().WithContext(ctx).Raw(statement, args...).Rows()
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, TranslateError(err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, TranslateError(err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, TranslateError(err)
	}

	return out, nil
}

// ExecuteMany runs statement once per argument set inside one transaction
// and returns the summed affected row count. Any failure rolls back every
// set.
func (p *Postgres) ExecuteMany(ctx context.Context, statement string, argSets [][]any) (int64, error) {
	if len(argSets) == 0 {
		return 0, nil
	}

	var total int64
	err := p.Transaction(ctx, func(tx *Postgres) error {
		for i, args := range argSets {
			res := tx.DB().WithContext(ctx).Exec(statement, args...)
			if res.Error != nil {
				return fmt.Errorf("argument set %d of %d: %w", i+1, len(argSets), res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, TranslateError(err)
	}

	p.logger.Debug("[Postgres] executed batch", nil, map[string]interface{}{
		"sets":     len(argSets),
		"affected": total,
	})
	return total, nil
}
