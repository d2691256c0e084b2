package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/sirupsen/logrus"
)

const (
	MessageComplete = "DNS check complete"
	MessageError    = "Error in DNS check"
)

// Opener acquires the snapshot store for a single run.
type Opener func(ctx context.Context) (db.Database, error)

// Status is what an invocation reports back to its trigger.
type Status struct {
	Code    int
	Message string
	Report  CycleReport
}

// Trigger runs one cycle against a freshly opened store. The store is closed on
// every path. Only failures affecting the whole cycle produce a 500; domains
// that failed individually are reported in the message of a 200.
func (m *Monitor) Trigger(ctx context.Context, open Opener, timeout time.Duration) (status Status) {
	log := logrus.WithField("domains", len(m.Domains))

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered panic during DNS check: %v", r)
			status = Status{Code: http.StatusInternalServerError, Message: MessageError}
		}
	}()

	if len(m.Domains) == 0 {
		log.Error(errors.New("no domains configured"))
		return Status{Code: http.StatusInternalServerError, Message: MessageError}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store, err := open(ctx)
	if err != nil {
		log.Errorf("unable to open snapshot store: %v", err)
		return Status{Code: http.StatusInternalServerError, Message: MessageError}
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("unable to close snapshot store: %v", err)
		}
	}()

	start := time.Now()
	report := m.RunCycle(ctx, store)
	log.WithFields(logrus.Fields{
		"bootstrap": report.Count(StateBootstrap),
		"unchanged": report.Count(StateUnchanged),
		"changed":   report.Count(StateChanged),
		"failed":    report.Failed(),
		"duration":  time.Since(start),
	}).Info("DNS check finished")

	msg := MessageComplete
	if n := report.Failed(); n > 0 {
		msg = fmt.Sprintf("%s, %d of %d domains failed", MessageComplete, n, len(report.Outcomes))
	}
	return Status{Code: http.StatusOK, Message: msg, Report: report}
}
