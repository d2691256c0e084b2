package backend

import (
	"context"
	"time"

	"github.com/acorn-io/dnswatch/pkg/auditlog"
	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/acorn-io/dnswatch/pkg/monitor"
	"github.com/acorn-io/dnswatch/pkg/resolver"
	"github.com/sirupsen/logrus"
)

// Backend is what the API server needs from the checker.
type Backend interface {
	Check(ctx context.Context) monitor.Status
	GetSnapshot(ctx context.Context, domain string) (model.Snapshot, bool, error)
	GetChanges(ctx context.Context, domain string) ([]model.ChangeEvent, error)
}

type backend struct {
	monitor      *monitor.Monitor
	open         monitor.Opener
	changes      auditlog.Reader
	cycleTimeout time.Duration
}

func NewBackend(m *monitor.Monitor, open monitor.Opener, changes auditlog.Reader, cycleTimeout time.Duration) Backend {
	return &backend{
		monitor:      m,
		open:         open,
		changes:      changes,
		cycleTimeout: cycleTimeout,
	}
}

func (b *backend) Check(ctx context.Context) monitor.Status {
	return b.monitor.Trigger(ctx, b.open, b.cycleTimeout)
}

func (b *backend) GetSnapshot(ctx context.Context, domain string) (model.Snapshot, bool, error) {
	name, err := resolver.NormalizeDomain(domain)
	if err != nil {
		return nil, false, err
	}

	logrus.Debugf("get snapshot for domain: %v", name)
	store, err := b.open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logrus.Warnf("unable to close snapshot store: %v", err)
		}
	}()

	return store.GetSnapshot(ctx, name)
}

func (b *backend) GetChanges(ctx context.Context, domain string) ([]model.ChangeEvent, error) {
	name, err := resolver.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	return b.changes.Events(ctx, name)
}
