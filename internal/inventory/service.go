// Package inventory implements equipment and department management with audit recording.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"asset-tracker-backend/internal/audit"
	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/parse"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
)

var (
	// ErrInvalidInput wraps every validation failure of an EquipmentInput or department name.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDepartmentNotFound is returned when the input references a missing department.
	ErrDepartmentNotFound = errors.New("department not found")
)

// EquipmentInput carries the editable fields of an equipment record.
type EquipmentInput struct {
	Name         string     `json:"name"`
	Model        string     `json:"model"`
	Code         string     `json:"code"`
	Status       int        `json:"status"`
	Date         *time.Time `json:"date"`
	Remark       *string    `json:"remark"`
	DepartmentID int64      `json:"departmentId"`
}

// Validate checks the fields the edit form requires.
func (in EquipmentInput) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(in.Model) == "" {
		problems = append(problems, "model is required")
	}
	if strings.TrimSpace(in.Code) == "" {
		problems = append(problems, "code is required")
	}
	if in.Date == nil {
		problems = append(problems, "date is required")
	}
	if in.DepartmentID == 0 {
		problems = append(problems, "departmentId is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	if !status.Valid(in.Status) {
		return fmt.Errorf("%w: %d", status.ErrUnknownStatus, in.Status)
	}
	return nil
}

func (in EquipmentInput) apply(eq *model.Equipment) {
	eq.Name = in.Name
	eq.Model = in.Model
	eq.Code = in.Code
	eq.Status = in.Status
	eq.DepartmentID = in.DepartmentID
	if in.Date != nil {
		// Keep the calendar day the client sent, whatever its offset.
		y, m, d := in.Date.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		eq.Date = &date
	}
	eq.Remark = in.Remark
}

// Service coordinates equipment mutations with their audit entries. Each
// mutation and its audit step commit or roll back together.
type Service struct {
	store    store.Store
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewService creates a service over s.
func NewService(s store.Store, recorder *audit.Recorder, logger *zap.Logger) *Service {
	return &Service{store: s, recorder: recorder, logger: logger}
}

func (s *Service) loadDepartment(ctx context.Context, tx store.Store, id int64) (*model.Department, error) {
	dept, err := tx.GetDepartment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrDepartmentNotFound, id)
	}
	return dept, err
}

// Create inserts a new equipment record. The creation entry is built but not persisted.
func (s *Service) Create(ctx context.Context, in EquipmentInput) (*model.Equipment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	eq := &model.Equipment{}
	in.apply(eq)

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		dept, err := s.loadDepartment(ctx, tx, in.DepartmentID)
		if err != nil {
			return err
		}
		if err := tx.InsertEquipment(ctx, eq); err != nil {
			return err
		}
		eq.Department = *dept
		_, err = s.recorder.Record(ctx, tx, audit.Created, eq)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Equipment created", zap.Int64("id", eq.ID), zap.String("name", eq.Name))
	return eq, nil
}

// Update replaces the editable fields of equipment id and appends one audit entry.
func (s *Service) Update(ctx context.Context, id int64, in EquipmentInput) (*model.Equipment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var eq *model.Equipment
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		eq, err = tx.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		dept, err := s.loadDepartment(ctx, tx, in.DepartmentID)
		if err != nil {
			return err
		}
		in.apply(eq)
		if err := tx.SaveEquipment(ctx, eq); err != nil {
			return err
		}
		eq.Department = *dept
		_, err = s.recorder.Record(ctx, tx, audit.Updated, eq)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Equipment updated", zap.Int64("id", eq.ID))
	return eq, nil
}

// Delete removes equipment id and appends one audit entry holding its last snapshot.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		eq, err := tx.GetEquipment(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteEquipment(ctx, id); err != nil {
			return err
		}
		_, err = s.recorder.Record(ctx, tx, audit.Deleted, eq)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Equipment deleted", zap.Int64("id", id))
	return nil
}

// Get returns equipment id with its department.
func (s *Service) Get(ctx context.Context, id int64) (*model.Equipment, error) {
	return s.store.GetEquipment(ctx, id)
}

// List returns one page of equipment and the total number of matches.
func (s *Service) List(ctx context.Context, filter store.EquipmentFilter) ([]model.Equipment, int64, error) {
	return s.store.ListEquipment(ctx, filter)
}

// CreateDepartment adds a department. Names are normalized the same way the import normalizes them.
func (s *Service) CreateDepartment(ctx context.Context, name string) (*model.Department, error) {
	name = parse.NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrInvalidInput)
	}
	dept := &model.Department{Name: name}
	if err := s.store.InsertDepartment(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("Department created", zap.Int64("id", dept.ID), zap.String("name", dept.Name))
	return dept, nil
}

// ListDepartments returns all departments with their equipment counts.
func (s *Service) ListDepartments(ctx context.Context) ([]store.DepartmentSummary, error) {
	return s.store.ListDepartments(ctx)
}

// AuditLogs returns one page of audit entries in timestamp order.
func (s *Service) AuditLogs(ctx context.Context, filter store.AuditFilter) ([]model.AuditLogEntry, int64, error) {
	return s.store.ListAuditLogs(ctx, filter)
}
