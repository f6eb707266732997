package store

import (
	"time"

	"asset-tracker-backend/internal/model"
)

// DefaultPageSize caps list queries that do not set a limit.
const DefaultPageSize = 50

// DepartmentSummary is a department together with the number of equipment rows assigned to it.
type DepartmentSummary struct {
	model.Department
	EquipmentCount int64 `json:"equipmentCount"`
}

// EquipmentSort selects the list order. A leading "-" reverses it.
type EquipmentSort string

const (
	SortByID         EquipmentSort = "id"
	SortByName       EquipmentSort = "name"
	SortByDate       EquipmentSort = "date"
	SortByDepartment EquipmentSort = "department"
)

// EquipmentFilter narrows ListEquipment. Zero values mean "no constraint".
type EquipmentFilter struct {
	DepartmentID int64
	Status       *int
	// Search matches name, model, code or department name.
	Search string
	Sort   string
	Limit  int
	Offset int
}

// AuditFilter narrows ListAuditLogs. Zero values mean "no constraint".
type AuditFilter struct {
	Since    time.Time
	Until    time.Time
	Contains string
	Limit    int
	Offset   int
}
