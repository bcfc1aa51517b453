package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// BackfillReport summarises one BackfillIndexes run.
type BackfillReport struct {
	Scanned int
	Updated int
	Failed  int
}

// BackfillIndexes fills blind-index columns still NULL on rows written before the
// index existed. Rows whose ciphertext cannot be decoded are skipped and reported
// in the joined error; the rest of the table is still processed.
func (c *Coordinator) BackfillIndexes(ctx context.Context) (BackfillReport, error) {
	var (
		report BackfillReport
		errs   []error
	)
	for _, f := range c.schema.Fields {
		if !f.Indexed {
			continue
		}
		if err := c.backfillField(ctx, f, &report, &errs); err != nil {
			return report, err
		}
	}
	return report, errors.Join(errs...)
}

func (c *Coordinator) backfillField(ctx context.Context, f Field, report *BackfillReport, errs *[]error) error {
	table := c.schema.Relational()
	hash := f.HashColumn()

	var lastID int64
	for {
		rows, err := c.deps.Relational.Select(ctx, table, Query{
			Columns: []string{table.IDColumn, f.Name},
			Where: []filter.Item{
				{Field: hash, Operator: filter.IsNull},
				{Field: f.Name, Operator: filter.IsNotNull},
				{Field: table.IDColumn, Operator: filter.Greater, Value: lastID},
			},
			OrderBy: []Order{{Column: table.IDColumn}},
			Limit:   defaultScanPage,
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("backfill %s.%s: %w", table.Name, hash, err))
		}

		for _, row := range rows {
			report.Scanned++
			id, _ := entity.CoerceInt(row[table.IDColumn])
			lastID = id

			ct, _ := row[f.Name].(string)
			plain, err := c.deps.Codec.Decrypt(ct)
			if err != nil {
				report.Failed++
				*errs = append(*errs, apperror.NewDecode(f.Name, err).WithDetail("id", id))
				continue
			}
			_, err = c.deps.Relational.Update(ctx, table,
				Row{hash: c.deps.Codec.BlindIndex(f.Name, plain)},
				[]filter.Item{filter.Eq(table.IDColumn, id)},
			)
			if err != nil {
				return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("backfill %s id %d: %w", table.Name, id, err))
			}
			report.Updated++
		}
		if len(rows) < defaultScanPage {
			return nil
		}
	}
}
