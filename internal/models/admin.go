// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB      `json:"old_values" gorm:"type:jsonb"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// RecalculationRun records one apply-mode catalog re-price. Dry runs are
// never recorded.
type RecalculationRun struct {
	BaseModel
	TriggeredBy    *uuid.UUID `json:"triggered_by" gorm:"type:uuid;index"`
	Status         RunStatus  `json:"status" gorm:"type:varchar(20);not null"`
	Processed      int        `json:"processed"`
	Failed         int        `json:"failed"`
	PricesChanged  int        `json:"prices_changed"`
	PriceIncreases int        `json:"price_increases"`
	PriceDecreases int        `json:"price_decreases"`
	TotalDiff      float64    `json:"total_diff" gorm:"type:decimal(14,2)"`
	ReportKey      string     `json:"report_key" gorm:"size:255"`
	ReportChecksum string     `json:"report_checksum" gorm:"size:64"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// PriceHistory is an immutable record of one product price change written by
// a recalculation run.
type PriceHistory struct {
	BaseModel
	ProductID          uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	RunID              *uuid.UUID `json:"run_id" gorm:"type:uuid;index"`
	OldCalculatedPrice float64    `json:"old_calculated_price" gorm:"type:decimal(12,2)"`
	NewCalculatedPrice float64    `json:"new_calculated_price" gorm:"type:decimal(12,2)"`
	OldFinalPrice      float64    `json:"old_final_price" gorm:"type:decimal(12,2)"`
	NewFinalPrice      float64    `json:"new_final_price" gorm:"type:decimal(12,2)"`
	Diff               float64    `json:"diff" gorm:"type:decimal(12,2)"`
	Reason             string     `json:"reason" gorm:"size:50;not null"`
}
