package db

import (
	"time"
)

type DomainRecord struct {
	Domain    string `gorm:"primaryKey;size:253"`
	Records   string `gorm:"type:text"` // JSON encoded model.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name used by earlier deployments of the checker.
func (DomainRecord) TableName() string {
	return "DNSRecords"
}
