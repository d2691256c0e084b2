package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/model"
)

type fakeResolver struct {
	mu      sync.Mutex
	records map[string]model.Snapshot
	errs    map[string]error
	panics  map[string]bool
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		records: map[string]model.Snapshot{},
		errs:    map[string]error{},
		panics:  map[string]bool{},
	}
}

func (f *fakeResolver) set(domain string, s model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[domain] = s
}

func (f *fakeResolver) Resolve(_ context.Context, domain string) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[domain] {
		panic("resolver exploded")
	}
	if err := f.errs[domain]; err != nil {
		return nil, err
	}
	return f.records[domain].Clone(), nil
}

// callLog records the order in which steps reach the fakes sharing it.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) record(call string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type memoryStore struct {
	log     *callLog
	mu      sync.Mutex
	data    map[string]model.Snapshot
	getErrs map[string]error
	putErr  error
	puts    int
	closed  bool
}

var _ db.Database = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]model.Snapshot{}, getErrs: map[string]error{}}
}

func (m *memoryStore) GetSnapshot(_ context.Context, domain string) (model.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.getErrs[domain]; err != nil {
		return nil, false, err
	}
	s, ok := m.data[domain]
	return s.Clone(), ok, nil
}

func (m *memoryStore) PutSnapshot(_ context.Context, domain string, s model.Snapshot) error {
	m.log.record("put")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[domain] = s.Clone()
	return nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type fakeAudit struct {
	log    *callLog
	mu     sync.Mutex
	events []model.ChangeEvent
	err    error
}

func (f *fakeAudit) Append(_ context.Context, _ string, e model.ChangeEvent) error {
	f.log.record("append")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type sentMail struct {
	subject string
	body    string
}

type fakeNotifier struct {
	log  *callLog
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, subject, body string) error {
	f.log.record("notify")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{subject: subject, body: body})
	return nil
}

var errBoom = errors.New("boom")
