package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CertificateStatus string

const (
	CertificateStatusPending  CertificateStatus = "pending"
	CertificateStatusApproved CertificateStatus = "approved"
	CertificateStatusRejected CertificateStatus = "rejected"
)

// Certificate is the quality certificate issued for a transport plan.
// Number looks like CPO0007/2568 and is unique within its Buddhist year.
// Certificates outlive a purged plan: PlanID is cleared and PurgedPlanID keeps
// the old reference, so neither the id nor the number is issued again.
type Certificate struct {
	ID           string              `gorm:"primaryKey;type:varchar(32)" json:"id"`
	PlanID       *string             `gorm:"type:varchar(32);index" json:"plan_id"`
	Plan         *TransportPlan      `gorm:"foreignKey:PlanID;references:ID" json:"-"`
	PurgedPlanID string              `gorm:"type:varchar(32);index" json:"purged_plan_id,omitempty"`
	Number       string              `gorm:"type:varchar(32);uniqueIndex;not null" json:"number"`
	LotCode      string              `gorm:"type:varchar(32);index" json:"lot_code"`
	ProductType  string              `gorm:"type:varchar(10)" json:"product_type"`
	Status       CertificateStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	FFA          decimal.NullDecimal `gorm:"type:decimal(6,3)" json:"ffa"`
	Moisture     decimal.NullDecimal `gorm:"type:decimal(6,3)" json:"moisture"`
	Impurity     decimal.NullDecimal `gorm:"type:decimal(6,3)" json:"impurity"`
	DOBI         decimal.NullDecimal `gorm:"type:decimal(6,3)" json:"dobi"`
	Remark       string              `gorm:"type:text" json:"remark"`
	IssuedAt     time.Time           `gorm:"type:datetime" json:"issued_at"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}
