package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudflare/cloudflare-go"
)

type fakeCloudflare struct {
	records []cloudflare.DNSRecord
	err     error
	calls   int
}

func (f *fakeCloudflare) ListDNSRecords(_ context.Context, _ *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	var out []cloudflare.DNSRecord
	for _, r := range f.records {
		if r.Name == params.Name && r.Type == params.Type {
			out = append(out, r)
		}
	}
	return out, &cloudflare.ResultInfo{}, nil
}

func TestCloudflareLookuper(t *testing.T) {
	prio := uint16(10)
	api := &fakeCloudflare{records: []cloudflare.DNSRecord{
		{Name: "example.com", Type: "A", Content: "1.2.3.4"},
		{Name: "example.com", Type: "MX", Content: "mail.example.com", Priority: &prio},
		{Name: "example.com", Type: "TXT", Content: "v=spf1 -all"},
		{Name: "www.example.com", Type: "CNAME", Content: "example.com"},
	}}
	l := &CloudflareLookuper{API: api, Zone: cloudflare.ZoneIdentifier("zone")}
	ctx := context.Background()

	tests := []struct {
		domain string
		rType  string
		want   string
	}{
		{"example.com", "A", "1.2.3.4"},
		{"example.com", "MX", "10 mail.example.com."},
		{"example.com", "TXT", "\"v=spf1 -all\""},
		{"www.example.com.", "CNAME", "example.com."},
	}
	for _, tt := range tests {
		t.Run(tt.rType, func(t *testing.T) {
			res := l.Lookup(ctx, tt.domain, tt.rType)
			if res.Status != Found || len(res.Values) != 1 || res.Values[0] != tt.want {
				t.Fatalf("Lookup(%s, %s) = %+v, want %q", tt.domain, tt.rType, res, tt.want)
			}
		})
	}
}

func TestCloudflareLookuperSOAIsNoData(t *testing.T) {
	api := &fakeCloudflare{}
	l := &CloudflareLookuper{API: api, Zone: cloudflare.ZoneIdentifier("zone")}
	if res := l.Lookup(context.Background(), "example.com", "SOA"); res.Status != NoData {
		t.Fatalf("expected NoData, got %+v", res)
	}
	if api.calls != 0 {
		t.Fatal("SOA lookup should not call the API")
	}
}

func TestCloudflareLookuperError(t *testing.T) {
	l := &CloudflareLookuper{API: &fakeCloudflare{err: errors.New("unauthorized")}, Zone: cloudflare.ZoneIdentifier("zone")}
	if res := l.Lookup(context.Background(), "example.com", "A"); res.Status != Failed {
		t.Fatalf("expected Failed, got %+v", res)
	}
}
