package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/acorn-io/dnswatch/pkg/config"
	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/acorn-io/dnswatch/pkg/monitor"
)

type staticResolver struct {
	snapshot model.Snapshot
}

func (r staticResolver) Resolve(context.Context, string) (model.Snapshot, error) {
	return r.snapshot.Clone(), nil
}

func TestHandleInvocation(t *testing.T) {
	store := config.StoreConfig{
		Dialect: db.DialectSQLite,
		DSN:     "file:" + filepath.Join(t.TempDir(), "dnswatch.sqlite"),
	}
	chk := &checker{
		monitor: &monitor.Monitor{
			Domains:  []string{"example.com"},
			Resolver: staticResolver{snapshot: model.Snapshot{"A": {"192.0.2.1"}}},
		},
		open: storeOpener(store, "error"),
	}

	resp, err := chk.handleInvocation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != monitor.MessageComplete {
		t.Fatalf("unexpected response %+v", resp)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"statusCode":200,"body":"DNS check complete"}` {
		t.Errorf("unexpected payload %s", out)
	}
}

func TestHandleInvocationStoreUnavailable(t *testing.T) {
	chk := &checker{
		monitor: &monitor.Monitor{
			Domains:  []string{"example.com"},
			Resolver: staticResolver{},
		},
		open: storeOpener(config.StoreConfig{Dialect: "postgres"}, "error"),
	}

	resp, err := chk.handleInvocation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError || resp.Body != monitor.MessageError {
		t.Fatalf("unexpected response %+v", resp)
	}
}
