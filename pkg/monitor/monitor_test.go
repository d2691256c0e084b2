package monitor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/acorn-io/dnswatch/pkg/diff"
	"github.com/acorn-io/dnswatch/pkg/model"
)

type harness struct {
	resolver *fakeResolver
	store    *memoryStore
	audit    *fakeAudit
	notifier *fakeNotifier
	monitor  *Monitor
}

func newHarness(domains ...string) *harness {
	h := &harness{
		resolver: newFakeResolver(),
		store:    newMemoryStore(),
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
	}
	h.monitor = &Monitor{
		Domains:  domains,
		Resolver: h.resolver,
		Audit:    h.audit,
		Notifier: h.notifier,
	}
	return h
}

func (h *harness) run(t *testing.T) CycleReport {
	t.Helper()
	return h.monitor.RunCycle(context.Background(), h.store)
}

func TestBootstrapStoresWithoutNotifying(t *testing.T) {
	h := newHarness("example.com")
	h.resolver.set("example.com", model.Snapshot{"A": {"1.1.1.1"}})

	report := h.run(t)

	if got := report.Outcomes[0].State; got != StateBootstrap {
		t.Fatalf("state = %s, want %s", got, StateBootstrap)
	}
	if !reflect.DeepEqual(h.store.data["example.com"], model.Snapshot{"A": {"1.1.1.1"}}) {
		t.Fatalf("stored %v", h.store.data["example.com"])
	}
	if len(h.notifier.sent) != 0 || len(h.audit.events) != 0 {
		t.Fatal("bootstrap must not notify or log")
	}
}

func TestSecondRunWithoutChangeIsIdempotent(t *testing.T) {
	h := newHarness("example.com")
	h.resolver.set("example.com", model.Snapshot{"A": {"1.2.3.4", "5.6.7.8"}})
	h.run(t)
	putsAfterBootstrap := h.store.puts

	// same records, different order
	h.resolver.set("example.com", model.Snapshot{"A": {"5.6.7.8", "1.2.3.4"}})
	report := h.run(t)

	if got := report.Outcomes[0].State; got != StateUnchanged {
		t.Fatalf("state = %s, want %s", got, StateUnchanged)
	}
	if h.store.puts != putsAfterBootstrap {
		t.Fatal("unchanged cycle wrote to the store")
	}
	if len(h.notifier.sent) != 0 || len(h.audit.events) != 0 {
		t.Fatal("unchanged cycle must not notify or log")
	}
}

func TestChangeIsStoredLoggedAndNotified(t *testing.T) {
	h := newHarness("example.com")
	h.store.data["example.com"] = model.Snapshot{"A": {"1.1.1.1"}}
	h.resolver.set("example.com", model.Snapshot{"A": {"2.2.2.2"}})

	report := h.run(t)

	out := report.Outcomes[0]
	if out.State != StateChanged || len(out.Errors()) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !reflect.DeepEqual(h.store.data["example.com"], model.Snapshot{"A": {"2.2.2.2"}}) {
		t.Fatalf("store not updated: %v", h.store.data["example.com"])
	}
	if len(h.audit.events) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(h.audit.events))
	}
	e := h.audit.events[0]
	if e.Domain != "example.com" || e.Previous["A"][0] != "1.1.1.1" || e.Current["A"][0] != "2.2.2.2" {
		t.Fatalf("unexpected event %+v", e)
	}
	if len(h.notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.notifier.sent))
	}
	if !strings.Contains(h.notifier.sent[0].subject, "example.com") {
		t.Fatalf("subject = %q", h.notifier.sent[0].subject)
	}
}

func TestTypeRemovalPolicy(t *testing.T) {
	tests := []struct {
		name   string
		differ diff.Differ
		want   State
	}{
		{name: "union of types", differ: diff.Differ{}, want: StateChanged},
		{name: "current types only", differ: diff.Differ{CurrentKeysOnly: true}, want: StateUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("x.com")
			h.monitor.Differ = tt.differ
			h.store.data["x.com"] = model.Snapshot{"MX": {"mail.x.com"}}
			h.resolver.set("x.com", model.Snapshot{})

			if got := h.run(t).Outcomes[0].State; got != tt.want {
				t.Fatalf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolverFailureIsIsolated(t *testing.T) {
	for _, mode := range []string{"error", "panic"} {
		t.Run(mode, func(t *testing.T) {
			h := newHarness("a.com", "b.com", "c.com")
			h.resolver.set("a.com", model.Snapshot{"A": {"1.1.1.1"}})
			h.resolver.set("c.com", model.Snapshot{"A": {"3.3.3.3"}})
			h.store.data["c.com"] = model.Snapshot{"A": {"9.9.9.9"}}
			if mode == "error" {
				h.resolver.errs["b.com"] = errBoom
			} else {
				h.resolver.panics["b.com"] = true
			}

			report := h.run(t)

			states := []State{report.Outcomes[0].State, report.Outcomes[1].State, report.Outcomes[2].State}
			want := []State{StateBootstrap, StateFailed, StateChanged}
			if !reflect.DeepEqual(states, want) {
				t.Fatalf("states = %v, want %v", states, want)
			}
			if report.Failed() != 1 {
				t.Fatalf("Failed() = %d", report.Failed())
			}
			if len(h.notifier.sent) != 1 {
				t.Fatalf("expected c.com to be notified, got %d notifications", len(h.notifier.sent))
			}
		})
	}
}

func TestStoreReadErrorFailsOnlyThatDomain(t *testing.T) {
	h := newHarness("a.com", "b.com")
	h.resolver.set("a.com", model.Snapshot{"A": {"1.1.1.1"}})
	h.resolver.set("b.com", model.Snapshot{"A": {"2.2.2.2"}})
	h.store.getErrs["a.com"] = errBoom

	report := h.run(t)

	if report.Outcomes[0].State != StateFailed || !errors.Is(report.Outcomes[0].Err, errBoom) {
		t.Fatalf("unexpected outcome for a.com: %+v", report.Outcomes[0])
	}
	if report.Outcomes[1].State != StateBootstrap {
		t.Fatalf("unexpected outcome for b.com: %+v", report.Outcomes[1])
	}
	if _, ok := h.store.data["a.com"]; ok {
		t.Fatal("a read error must not be treated as a bootstrap")
	}
}

func TestStepFailuresDoNotStopLaterSteps(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		wantAudit int
		wantMail  int
	}{
		{
			name:      "store write fails",
			setup:     func(h *harness) { h.store.putErr = errBoom },
			wantAudit: 1,
			wantMail:  1,
		},
		{
			name:      "audit append fails",
			setup:     func(h *harness) { h.audit.err = errBoom },
			wantAudit: 0,
			wantMail:  1,
		},
		{
			name:      "notification fails",
			setup:     func(h *harness) { h.notifier.err = errBoom },
			wantAudit: 1,
			wantMail:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("example.com")
			h.store.data["example.com"] = model.Snapshot{"A": {"1.1.1.1"}}
			h.resolver.set("example.com", model.Snapshot{"A": {"2.2.2.2"}})
			tt.setup(h)

			out := h.run(t).Outcomes[0]

			if out.State != StateChanged {
				t.Fatalf("state = %s", out.State)
			}
			if len(out.StepErrors) != 1 || !errors.Is(out.StepErrors[0], errBoom) {
				t.Fatalf("step errors = %v", out.StepErrors)
			}
			if len(h.audit.events) != tt.wantAudit || len(h.notifier.sent) != tt.wantMail {
				t.Fatalf("audit=%d mail=%d", len(h.audit.events), len(h.notifier.sent))
			}
		})
	}
}

func TestNotificationFailureKeepsSnapshot(t *testing.T) {
	h := newHarness("example.com")
	h.store.data["example.com"] = model.Snapshot{"A": {"1.1.1.1"}}
	h.resolver.set("example.com", model.Snapshot{"A": {"2.2.2.2"}})
	h.notifier.err = errBoom

	h.run(t)

	if h.store.data["example.com"]["A"][0] != "2.2.2.2" {
		t.Fatal("snapshot rolled back after notification failure")
	}
}

func TestConcurrentCycle(t *testing.T) {
	var domains []string
	for i := 0; i < 25; i++ {
		domains = append(domains, fmt.Sprintf("d%d.example.com", i))
	}
	h := newHarness(domains...)
	h.monitor.Concurrency = 5
	for i, d := range domains {
		h.resolver.set(d, model.Snapshot{"A": {fmt.Sprintf("10.0.0.%d", i)}})
		if i%2 == 0 {
			h.store.data[d] = model.Snapshot{"A": {"192.0.2.1"}}
		}
	}

	report := h.run(t)

	for i, out := range report.Outcomes {
		if out.Domain != domains[i] {
			t.Fatalf("outcome %d is for %s, want %s", i, out.Domain, domains[i])
		}
	}
	if got := report.Count(StateChanged); got != 13 {
		t.Fatalf("changed = %d, want 13", got)
	}
	if got := report.Count(StateBootstrap); got != 12 {
		t.Fatalf("bootstrap = %d, want 12", got)
	}
	if len(h.notifier.sent) != 13 || len(h.audit.events) != 13 {
		t.Fatalf("notifications=%d audit=%d", len(h.notifier.sent), len(h.audit.events))
	}
}

func TestChangeStepOrder(t *testing.T) {
	h := newHarness("example.com")
	log := &callLog{}
	h.store.log, h.audit.log, h.notifier.log = log, log, log

	h.resolver.set("example.com", model.Snapshot{"A": {"1.1.1.1"}})
	h.run(t)
	h.resolver.set("example.com", model.Snapshot{"A": {"2.2.2.2"}})
	report := h.run(t)

	if got := report.Outcomes[0].State; got != StateChanged {
		t.Fatalf("state = %s, want %s", got, StateChanged)
	}
	want := []string{"put", "put", "append", "notify"}
	if got := log.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestChangeStepOrderSurvivesFailures(t *testing.T) {
	h := newHarness("example.com")
	log := &callLog{}
	h.store.log, h.audit.log, h.notifier.log = log, log, log
	h.store.data["example.com"] = model.Snapshot{"A": {"1.1.1.1"}}
	h.resolver.set("example.com", model.Snapshot{"A": {"2.2.2.2"}})
	h.store.putErr = errBoom
	h.audit.err = errBoom

	out := h.run(t).Outcomes[0]

	if want := []string{"put", "append", "notify"}; !reflect.DeepEqual(log.list(), want) {
		t.Fatalf("calls = %v, want %v", log.list(), want)
	}
	if len(out.StepErrors) != 2 {
		t.Fatalf("expected two step errors, got %v", out.StepErrors)
	}
}
