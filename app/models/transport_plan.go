package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/palmmill/backoffice/internal/pkg/ordinal"
)

type PlanStatus string

const (
	PlanStatusWaiting   PlanStatus = "waiting"
	PlanStatusLoading   PlanStatus = "loading"
	PlanStatusInTransit PlanStatus = "in_transit"
	PlanStatusDelivered PlanStatus = "delivered"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// TransportPlan is one vehicle trip of a plan submission. ID is issued by the
// ledger, never by the database, and may hold legacy non-numeric values.
type TransportPlan struct {
	ID         string          `gorm:"primaryKey;type:varchar(32)" json:"id"`
	IDOrdinal  int64           `gorm:"column:id_ordinal;not null;default:0;index:idx_transport_plans_sort,priority:1" json:"-"`
	OccurredAt time.Time       `gorm:"type:datetime;not null;index:idx_transport_plans_sort,priority:2" json:"occurred_at"`
	GoodsCode  string          `gorm:"type:varchar(50);not null" json:"goods_code"`
	GoodsName  string          `gorm:"type:varchar(255);not null" json:"goods_name"`
	LoadAmount decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"load_amount"`
	CustomerID string          `gorm:"type:varchar(50);index;not null" json:"customer_id"`
	Recipient  string          `gorm:"type:varchar(255)" json:"recipient"`
	VehicleNo  string          `gorm:"type:varchar(100)" json:"vehicle_no"`
	DriverName string          `gorm:"type:varchar(255)" json:"driver_name"`
	Status     PlanStatus      `gorm:"type:varchar(30);not null;default:'waiting'" json:"status"`
	Remarks    string          `gorm:"type:text" json:"remarks"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (TransportPlan) TableName() string {
	return "transport_plans"
}

// BeforeSave keeps the sort key in step with the identifier. Non-numeric ids sort as 0.
func (p *TransportPlan) BeforeSave(tx *gorm.DB) error {
	p.IDOrdinal, _ = ordinal.Numeric(p.ID)
	return nil
}

// IsDeleted reports whether the plan is a tombstone.
func (p *TransportPlan) IsDeleted() bool {
	return p.DeletedAt.Valid
}
