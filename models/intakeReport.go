package models

import "time"

// IntakeReport is a stored aggregation snapshot produced by the report worker.
type IntakeReport struct {
	ID        int64      `gorm:"column:id;primary_key" json:"id"`
	OwnerID   string     `gorm:"column:owner_id;type:varchar(64);not null;unique_index:uix_report_owner_date" json:"owner_id"`
	Date      string     `gorm:"column:date;type:varchar(10);not null;unique_index:uix_report_owner_date" json:"date"`
	Data      string     `gorm:"column:data;type:text" json:"data"`
	CreatedAt *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (i *IntakeReport) TableName() string {
	return "intake_reports"
}
