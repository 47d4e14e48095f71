package models

import "time"

// Inspection is a vehicle inspection recorded by the weighbridge/QC station.
// It may live in a different database than plans.
type Inspection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlanID      string    `gorm:"type:varchar(32);index;not null" json:"plan_id"`
	InspectedAt time.Time `gorm:"type:datetime" json:"inspected_at"`
	Inspector   string    `gorm:"type:varchar(255)" json:"inspector"`
	Result      string    `gorm:"type:varchar(20)" json:"result"`
	Note        string    `gorm:"type:text" json:"note"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Inspection) TableName() string {
	return "inspections"
}
