package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"asset-tracker-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateDepartmentName is returned when the database rejects a second department with the same name.
	ErrDuplicateDepartmentName = errors.New("department name already exists")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	// WithTx runs fn inside one transaction. Everything fn writes through tx
	// is committed together, or rolled back together when fn returns an error.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	FindDepartmentByName(ctx context.Context, name string) (*model.Department, error)
	GetDepartment(ctx context.Context, id int64) (*model.Department, error)
	InsertDepartment(ctx context.Context, dept *model.Department) error
	ListDepartments(ctx context.Context) ([]DepartmentSummary, error)
	CountDepartments(ctx context.Context) (int64, error)

	GetEquipment(ctx context.Context, id int64) (*model.Equipment, error)
	ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, int64, error)
	InsertEquipment(ctx context.Context, eq *model.Equipment) error
	SaveEquipment(ctx context.Context, eq *model.Equipment) error
	DeleteEquipment(ctx context.Context, id int64) error

	AppendAuditLog(ctx context.Context, entry *model.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]model.AuditLogEntry, int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognizes unique-constraint failures from both drivers.
// Only the postgres dialector implements gorm's ErrorTranslator; the sqlite
// driver (gorm.io/driver/sqlite v1.4.3) passes the raw mattn error through, so
// its "UNIQUE constraint failed" text is matched directly.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
