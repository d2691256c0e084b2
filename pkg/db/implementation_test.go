package db

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/acorn-io/dnswatch/pkg/model"
)

func testDatabase(t *testing.T) Database {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "dnswatch.sqlite") + "?_pragma=busy_timeout(5000)"
	d, err := New(context.Background(), DialectSQLite, dsn, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestGetSnapshotAbsent(t *testing.T) {
	d := testDatabase(t)

	snap, ok, err := d.GetSnapshot(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || snap != nil {
		t.Fatalf("expected absent snapshot, got %v", snap)
	}
}

func TestPutSnapshotUpserts(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	first := model.Snapshot{"A": {"1.1.1.1"}, "MX": {}}
	if err := d.PutSnapshot(ctx, "example.com", first); err != nil {
		t.Fatal(err)
	}
	got, ok, err := d.GetSnapshot(ctx, "example.com")
	if err != nil || !ok {
		t.Fatalf("GetSnapshot() = %v, %v, %v", got, ok, err)
	}
	if !reflect.DeepEqual(got, first) {
		t.Fatalf("got %#v, want %#v", got, first)
	}

	second := model.Snapshot{"A": {"2.2.2.2"}}
	if err := d.PutSnapshot(ctx, "example.com", second); err != nil {
		t.Fatal(err)
	}
	got, _, err = d.GetSnapshot(ctx, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("got %#v, want %#v", got, second)
	}

	var count int64
	if err := d.(*database).db.Model(&DomainRecord{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected one row per domain, got %d", count)
	}
}

func TestPutSnapshotKeepsDomainsApart(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, domain := range []string{"a.example.com", "b.example.com"} {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			errs <- d.PutSnapshot(ctx, domain, model.Snapshot{"TXT": {domain}})
		}(domain)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	for _, domain := range []string{"a.example.com", "b.example.com"} {
		got, ok, err := d.GetSnapshot(ctx, domain)
		if err != nil || !ok || got["TXT"][0] != domain {
			t.Fatalf("%s: got %v, %v, %v", domain, got, ok, err)
		}
	}
}

func TestGetSnapshotCorruptRow(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	if err := d.(*database).db.Create(&DomainRecord{Domain: "example.com", Records: "{"}).Error; err != nil {
		t.Fatal(err)
	}

	_, ok, err := d.GetSnapshot(ctx, "example.com")
	if err == nil || ok {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	if _, err := New(context.Background(), "postgres", "", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN("db.internal", "monitor", "s3cret", "dns")
	for _, want := range []string{"monitor:s3cret@tcp(db.internal:3306)/dns", "parseTime=true"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q does not contain %q", dsn, want)
		}
	}

	if dsn := MySQLDSN("db.internal:3307", "u", "p", "d"); !strings.Contains(dsn, "tcp(db.internal:3307)") {
		t.Errorf("explicit port lost: %s", dsn)
	}
}
