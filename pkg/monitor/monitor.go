// Package monitor drives the per-domain check cycle: resolve, load the previous
// snapshot, diff, then bootstrap or persist, log and notify.
package monitor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/acorn-io/dnswatch/pkg/auditlog"
	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/diff"
	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/acorn-io/dnswatch/pkg/notify"
	"github.com/acorn-io/dnswatch/pkg/resolver"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateBootstrap State = "bootstrap"
	StateUnchanged State = "unchanged"
	StateChanged   State = "changed"
	StateFailed    State = "failed"
)

// Outcome is the result of processing one domain. Err is set when the domain
// could not be checked at all; StepErrors collects failures of the store write,
// audit append and notification, none of which stop the following steps.
type Outcome struct {
	Domain     string
	State      State
	Err        error
	StepErrors []error
}

func (o Outcome) Errors() []error {
	if o.Err != nil {
		return append([]error{o.Err}, o.StepErrors...)
	}
	return o.StepErrors
}

type CycleReport struct {
	Outcomes []Outcome
}

// Failed counts domains that could not be checked.
func (r CycleReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			n++
		}
	}
	return n
}

func (r CycleReport) Count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

type Monitor struct {
	Domains  []string
	Resolver resolver.Resolver
	Differ   diff.Differ
	Audit    auditlog.Appender
	Notifier notify.Notifier
	// Concurrency is the number of domains processed at once. Values below 2
	// process domains one after the other.
	Concurrency int
}

// RunCycle processes every configured domain against store. A failing domain
// never prevents the others from being processed.
func (m *Monitor) RunCycle(ctx context.Context, store db.Database) CycleReport {
	outcomes := make([]Outcome, len(m.Domains))

	if m.Concurrency < 2 {
		for i, domain := range m.Domains {
			outcomes[i] = m.Process(ctx, store, domain)
		}
		return CycleReport{Outcomes: outcomes}
	}

	var g errgroup.Group
	g.SetLimit(m.Concurrency)
	for i, domain := range m.Domains {
		i, domain := i, domain
		g.Go(func() error {
			outcomes[i] = m.Process(ctx, store, domain)
			return nil
		})
	}
	_ = g.Wait()

	return CycleReport{Outcomes: outcomes}
}

// Process runs one domain through resolve, load, diff and the resulting
// transition. Steps within a domain are strictly ordered.
func (m *Monitor) Process(ctx context.Context, store db.Database, domain string) (out Outcome) {
	log := logrus.WithField("domain", domain)
	out.Domain = domain

	defer func() {
		if r := recover(); r != nil {
			out.State = StateFailed
			out.Err = fmt.Errorf("panic while processing %s: %v", domain, r)
			log.Errorf("recovered panic: %v\n%s", r, debug.Stack())
		}
	}()

	current, err := m.Resolver.Resolve(ctx, domain)
	if err != nil {
		log.Errorf("unable to resolve records: %v", err)
		return failed(out, err)
	}

	previous, ok, err := store.GetSnapshot(ctx, domain)
	if err != nil {
		log.Errorf("unable to load previous records: %v", err)
		return failed(out, err)
	}

	if !ok {
		out.State = StateBootstrap
		log.Infof("no previous records found, storing current records")
		if err := store.PutSnapshot(ctx, domain, current); err != nil {
			log.Errorf("unable to store initial records: %v", err)
			out.StepErrors = append(out.StepErrors, err)
		}
		return out
	}

	changes := m.Differ.Compute(previous, current)
	if changes.Empty() {
		out.State = StateUnchanged
		log.Debugf("records unchanged")
		return out
	}

	out.State = StateChanged
	log.WithField("types", changes.Types()).Warnf("DNS records changed")
	event := model.NewChangeEvent(domain, previous, current, changes)

	// The store may lag behind the real records until the next successful
	// run when this write fails; logging and notification still go ahead.
	if err := store.PutSnapshot(ctx, domain, current); err != nil {
		log.Errorf("unable to store changed records: %v", err)
		out.StepErrors = append(out.StepErrors, err)
	}

	if m.Audit != nil {
		if err := m.Audit.Append(ctx, domain, event); err != nil {
			log.Errorf("unable to append to change log: %v", err)
			out.StepErrors = append(out.StepErrors, err)
		}
	}

	if m.Notifier != nil {
		if err := m.notify(ctx, event); err != nil {
			log.Errorf("unable to send change notification: %v", err)
			out.StepErrors = append(out.StepErrors, err)
		}
	}

	return out
}

func (m *Monitor) notify(ctx context.Context, event model.ChangeEvent) error {
	subject, body, err := notify.ChangeAlert(event)
	if err != nil {
		return err
	}
	return m.Notifier.Notify(ctx, subject, body)
}

func failed(out Outcome, err error) Outcome {
	out.State = StateFailed
	out.Err = err
	return out
}
