package db

import (
	"context"

	"github.com/acorn-io/dnswatch/pkg/model"
)

// Database holds the last observed snapshot of every monitored domain.
type Database interface {
	// GetSnapshot returns false with a nil error when the domain was never stored.
	GetSnapshot(ctx context.Context, domain string) (model.Snapshot, bool, error)
	// PutSnapshot inserts or overwrites the domain's snapshot in one statement.
	PutSnapshot(ctx context.Context, domain string, snapshot model.Snapshot) error
	Close() error
}
