package resolver

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/route53/route53iface"
)

// route53PageSize leaves room for several record sets sharing a name and type
// (weighted, latency or failover routing).
const route53PageSize = "100"

// Route53Lookuper reads record sets straight from a Route53 hosted zone.
type Route53Lookuper struct {
	ZoneID string
	Svc    route53iface.Route53API
}

func NewRoute53Lookuper(zoneID string) (*Route53Lookuper, error) {
	s, err := session.NewSession()
	if err != nil {
		return nil, err
	}

	svc := route53.New(s, &aws.Config{
		MaxRetries: aws.Int(3),
	})

	z, err := svc.GetHostedZone(&route53.GetHostedZoneInput{
		Id: aws.String(zoneID),
	})
	if err != nil {
		return nil, err
	}

	return &Route53Lookuper{
		ZoneID: aws.StringValue(z.HostedZone.Id),
		Svc:    svc,
	}, nil
}

func (l *Route53Lookuper) Lookup(ctx context.Context, domain, rType string) LookupResult {
	name := strings.TrimSuffix(strings.ToLower(domain), ".") + "."

	out, err := l.Svc.ListResourceRecordSetsWithContext(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(l.ZoneID),
		StartRecordName: aws.String(name),
		StartRecordType: aws.String(rType),
		MaxItems:        aws.String(route53PageSize),
	})
	if err != nil {
		return failed(err)
	}

	var values []string
	for _, recordSet := range out.ResourceRecordSets {
		if cleanRecordName(aws.StringValue(recordSet.Name)) != name || aws.StringValue(recordSet.Type) != rType {
			continue
		}
		if recordSet.AliasTarget != nil {
			values = append(values, "ALIAS "+aws.StringValue(recordSet.AliasTarget.DNSName))
			continue
		}
		for _, rr := range recordSet.ResourceRecords {
			values = append(values, aws.StringValue(rr.Value))
		}
	}

	return found(values)
}

// cleanRecordName undoes Route53's octal escaping of the wildcard label.
func cleanRecordName(name string) string {
	return strings.ToLower(strings.Replace(name, "\\052", "*", 1))
}
