package model

import "time"

// Equipment is a tracked physical asset.
type Equipment struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:500;not null" json:"name"`
	Model        string     `gorm:"size:500" json:"model"`
	Code         string     `gorm:"size:500;index" json:"code"`
	Status       int        `gorm:"not null" json:"status"`
	Date         *time.Time `json:"date"` // Purchase date, nil when the source cell was unparsable
	Remark       *string    `gorm:"type:text" json:"remark"`
	DepartmentID int64      `gorm:"index;not null" json:"departmentId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Associations
	Department Department `gorm:"constraint:OnDelete:RESTRICT" json:"department"`
}

// TableName keeps the uncountable table name.
func (Equipment) TableName() string { return "equipment" }
