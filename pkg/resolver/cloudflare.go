package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/cloudflare/cloudflare-go"
)

type cloudflareAPI interface {
	ListDNSRecords(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error)
}

// CloudflareLookuper reads records of a zone hosted on Cloudflare through its API.
// The API does not expose SOA records, so SOA always reports NoData.
type CloudflareLookuper struct {
	API  cloudflareAPI
	Zone *cloudflare.ResourceContainer
}

func NewCloudflareLookuper(apiToken, zone string) (*CloudflareLookuper, error) {
	if apiToken == "" || zone == "" {
		return nil, fmt.Errorf("cloudflare: require api token and zone")
	}

	api, err := cloudflare.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, err
	}

	zoneID, err := api.ZoneIDByName(zone)
	if err != nil {
		return nil, fmt.Errorf("cloudflare: looking up zone %s: %w", zone, err)
	}

	return &CloudflareLookuper{
		API:  api,
		Zone: cloudflare.ZoneIdentifier(zoneID),
	}, nil
}

func (l *CloudflareLookuper) Lookup(ctx context.Context, domain, rType string) LookupResult {
	if rType == model.RecordTypeSOA {
		return noData()
	}

	records, _, err := l.API.ListDNSRecords(ctx, l.Zone, cloudflare.ListDNSRecordsParams{
		Name: strings.TrimSuffix(domain, "."),
		Type: rType,
	})
	if err != nil {
		return failed(err)
	}

	var values []string
	for _, r := range records {
		if r.Type != rType {
			continue
		}
		values = append(values, cloudflareValue(r))
	}
	return found(values)
}

// cloudflareValue renders API content the way a nameserver presents it, so
// snapshots taken through different lookupers stay comparable.
func cloudflareValue(r cloudflare.DNSRecord) string {
	switch r.Type {
	case model.RecordTypeTxt:
		if !strings.HasPrefix(r.Content, "\"") {
			return "\"" + r.Content + "\""
		}
	case model.RecordTypeMX:
		target := fqdn(r.Content)
		if r.Priority != nil {
			return fmt.Sprintf("%d %s", *r.Priority, target)
		}
		return target
	case model.RecordTypeCname, model.RecordTypeNS, model.RecordTypePTR:
		return fqdn(r.Content)
	}
	return r.Content
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}
