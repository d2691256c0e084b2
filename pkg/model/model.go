package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RecordTypeA     = "A"
	RecordTypeAAAA  = "AAAA"
	RecordTypeMX    = "MX"
	RecordTypeNS    = "NS"
	RecordTypeTxt   = "TXT"
	RecordTypeCname = "CNAME"
	RecordTypePTR   = "PTR"
	RecordTypeSOA   = "SOA"
)

// RecordTypes is the fixed set of record types tracked for every domain, in query order.
var RecordTypes = []string{
	RecordTypeA,
	RecordTypeAAAA,
	RecordTypeMX,
	RecordTypeNS,
	RecordTypeTxt,
	RecordTypeCname,
	RecordTypePTR,
	RecordTypeSOA,
}

func IsValidRecordType(rt string) error {
	for _, t := range RecordTypes {
		if t == rt {
			return nil
		}
	}

	return fmt.Errorf("invalid record type %q", rt)
}

// ChangeEvent is one entry of a domain's audit log.
type ChangeEvent struct {
	ID        uuid.UUID             `json:"id"`
	Domain    string                `json:"domain"`
	Previous  Snapshot              `json:"previous"`
	Current   Snapshot              `json:"current"`
	Changes   map[string]TypeChange `json:"changes,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// TypeChange holds the values that appeared and disappeared for one record type.
type TypeChange struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

func NewChangeEvent(domain string, previous, current Snapshot, changes map[string]TypeChange) ChangeEvent {
	return ChangeEvent{
		ID:        uuid.New(),
		Domain:    domain,
		Previous:  previous,
		Current:   current,
		Changes:   changes,
		Timestamp: time.Now().UTC(),
	}
}

type SnapshotResponse struct {
	Domain  string   `json:"domain,omitempty"`
	Records Snapshot `json:"records,omitempty"`
}

type CheckResponse struct {
	Status  int              `json:"status"`
	Message string           `json:"msg,omitempty"`
	Domains []DomainResponse `json:"domains,omitempty"`
}

type DomainResponse struct {
	Name   string   `json:"name,omitempty"`
	State  string   `json:"state,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Status  int         `json:"status,omitempty"`
	Message string      `json:"msg,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
