package store

import (
	"context"
	"fmt"

	"asset-tracker-backend/internal/model"
)

func (s *gormStore) FindDepartmentByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&dept).Error; err != nil {
		return nil, notFound(err)
	}
	return &dept, nil
}

func (s *gormStore) GetDepartment(ctx context.Context, id int64) (*model.Department, error) {
	var dept model.Department
	if err := s.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &dept, nil
}

func (s *gormStore) InsertDepartment(ctx context.Context, dept *model.Department) error {
	if err := s.db.WithContext(ctx).Create(dept).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateDepartmentName, dept.Name)
		}
		return fmt.Errorf("failed to insert department %q: %w", dept.Name, err)
	}
	return nil
}

// ListDepartments returns every department ordered by name with its equipment count.
func (s *gormStore) ListDepartments(ctx context.Context) ([]DepartmentSummary, error) {
	var depts []model.Department
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&depts).Error; err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	type aggRow struct {
		DepartmentID   int64
		EquipmentCount int64
	}
	var aggs []aggRow
	if err := s.db.WithContext(ctx).
		Model(&model.Equipment{}).
		Select("department_id AS department_id, COUNT(*) AS equipment_count").
		Group("department_id").
		Scan(&aggs).Error; err != nil {
		return nil, fmt.Errorf("failed to count equipment per department: %w", err)
	}

	counts := make(map[int64]int64, len(aggs))
	for _, a := range aggs {
		counts[a.DepartmentID] = a.EquipmentCount
	}

	summaries := make([]DepartmentSummary, 0, len(depts))
	for _, d := range depts {
		summaries = append(summaries, DepartmentSummary{Department: d, EquipmentCount: counts[d.ID]})
	}
	return summaries, nil
}

func (s *gormStore) CountDepartments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Department{}).Count(&n).Error
	return n, err
}
