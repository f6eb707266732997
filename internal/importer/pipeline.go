// Package importer loads equipment rows from spreadsheets into the store.
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/parse"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
)

// Pipeline imports whole sheets in a single transaction.
type Pipeline struct {
	store  store.Store
	logger *zap.Logger
}

// NewPipeline creates a pipeline writing to s.
func NewPipeline(s store.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{store: s, logger: logger}
}

// ImportAll imports every row after the header. Either all rows and the
// departments they need are committed, or nothing is and (0, err) is returned.
// Imported equipment is always marked in use, whatever the sheet says.
func (p *Pipeline) ImportAll(ctx context.Context, rows []parse.Row) (int, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	if len(rows) <= 1 {
		logger.Info("Import skipped, sheet has no data rows")
		return 0, nil
	}

	var count, newDepts, undated int
	err := p.store.WithTx(ctx, func(tx store.Store) error {
		resolver := NewResolver(tx)

		for i, raw := range rows[1:] {
			row := parse.ParseRow(raw)

			dept, err := resolver.Resolve(ctx, row.DepartmentName)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}

			if row.Date == nil {
				undated++
			}

			eq := &model.Equipment{
				Name:         row.Name,
				Model:        row.Model,
				Code:         row.Code,
				Status:       status.InUse,
				Date:         row.Date,
				DepartmentID: dept.ID,
			}
			if err := tx.InsertEquipment(ctx, eq); err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
			count++
		}
		newDepts = resolver.Created()
		return nil
	})
	if err != nil {
		logger.Error("Import rolled back", zap.Error(err))
		return 0, err
	}

	logger.Info("Import committed",
		zap.Int("equipment", count),
		zap.Int("new_departments", newDepts),
		zap.Int("undated", undated),
	)
	return count, nil
}
