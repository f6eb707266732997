package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-tracker-backend/internal/model"
)

func (s *gormStore) GetEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	var eq model.Equipment
	if err := s.db.WithContext(ctx).Preload("Department").First(&eq, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &eq, nil
}

// InsertEquipment writes the row only; the referenced department must already exist.
func (s *gormStore) InsertEquipment(ctx context.Context, eq *model.Equipment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(eq).Error; err != nil {
		return fmt.Errorf("failed to insert equipment %q: %w", eq.Name, err)
	}
	return nil
}

func (s *gormStore) SaveEquipment(ctx context.Context, eq *model.Equipment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(eq).Error; err != nil {
		return fmt.Errorf("failed to save equipment %d: %w", eq.ID, err)
	}
	return nil
}

func (s *gormStore) DeleteEquipment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Equipment{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete equipment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var equipmentSortColumns = map[EquipmentSort]string{
	SortByID:         "equipment.id",
	SortByName:       "equipment.name",
	SortByDate:       "equipment.date",
	SortByDepartment: "departments.name",
}

// ListEquipment returns one page of equipment with departments preloaded, and the total match count.
func (s *gormStore) ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&model.Equipment{}).
		Joins("LEFT JOIN departments ON departments.id = equipment.department_id")

	if filter.DepartmentID != 0 {
		query = query.Where("equipment.department_id = ?", filter.DepartmentID)
	}
	if filter.Status != nil {
		query = query.Where("equipment.status = ?", *filter.Status)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"equipment.name LIKE ? OR equipment.model LIKE ? OR equipment.code LIKE ? OR departments.name LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count equipment: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	items := make([]model.Equipment, 0)
	err := query.
		Select("equipment.*").
		Preload("Department").
		Order(orderClause(filter.Sort)).
		Limit(limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list equipment: %w", err)
	}
	return items, total, nil
}

func orderClause(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	column, ok := equipmentSortColumns[EquipmentSort(strings.TrimPrefix(sort, "-"))]
	if !ok {
		column = equipmentSortColumns[SortByID]
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
