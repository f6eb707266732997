package model

import "time"

// Department is an organizational unit that equipment is assigned to.
type Department struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Equipment []Equipment `gorm:"foreignKey:DepartmentID" json:"-"`
}
