// Package report lists idle EC2 resources across regions and mails them as a
// CSV attachment.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/acorn-io/dnswatch/pkg/notify"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/sirupsen/logrus"
)

const (
	KindVolumes    = "volumes"
	KindElasticIPs = "elastic-ips"
)

const noName = "N/A"

type Volume struct {
	VolumeID     string
	VolumeName   string
	Region       string
	AccountID    string
	Name         string
	CreationDate string
}

type ElasticIP struct {
	PublicIP     string
	AllocationID string
	Region       string
	AccountID    string
	Name         string
	Domain       string
}

// Mail addresses the report mail. Cc is optional.
type Mail struct {
	From string
	To   []string
	Cc   []string
}

type Reporter struct {
	Regions     []string
	AccountName string
	// EC2 returns the client for a region.
	EC2       func(region string) ec2iface.EC2API
	STS       stsiface.STSAPI
	Transport notify.Transport
	Mail      Mail
}

func New(regions []string, accountName string, transport notify.Transport, m Mail) (*Reporter, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("report: at least one region is required")
	}

	s, err := session.NewSession(&aws.Config{
		MaxRetries: aws.Int(3),
	})
	if err != nil {
		return nil, err
	}

	return &Reporter{
		Regions:     regions,
		AccountName: accountName,
		EC2: func(region string) ec2iface.EC2API {
			return ec2.New(s, aws.NewConfig().WithRegion(region))
		},
		STS:       sts.New(s),
		Transport: transport,
		Mail:      m,
	}, nil
}

func (r *Reporter) accountID(ctx context.Context) (string, error) {
	out, err := r.STS.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("report: resolving caller account: %w", err)
	}
	return aws.StringValue(out.Account), nil
}

// UnusedVolumes lists volumes without attachments. A region that cannot be
// listed is logged and skipped.
func (r *Reporter) UnusedVolumes(ctx context.Context, accountID string) []Volume {
	var result []Volume
	for _, region := range r.Regions {
		log := logrus.WithFields(logrus.Fields{"region": region, "account": accountID})
		log.Info("checking region for unused volumes")

		var found []Volume
		err := r.EC2(region).DescribeVolumesPagesWithContext(ctx, &ec2.DescribeVolumesInput{},
			func(page *ec2.DescribeVolumesOutput, _ bool) bool {
				for _, v := range page.Volumes {
					if len(v.Attachments) > 0 {
						continue
					}
					found = append(found, Volume{
						VolumeID:     aws.StringValue(v.VolumeId),
						VolumeName:   nameTag(v.Tags),
						Region:       region,
						AccountID:    accountID,
						Name:         r.AccountName,
						CreationDate: aws.TimeValue(v.CreateTime).UTC().Format(time.DateTime),
					})
				}
				return true
			})
		if err != nil {
			log.Errorf("error describing volumes: %v", err)
			continue
		}
		result = append(result, found...)
	}
	return result
}

// UnusedElasticIPs lists addresses not associated with an instance or
// network interface. A region that cannot be listed is logged and skipped.
func (r *Reporter) UnusedElasticIPs(ctx context.Context, accountID string) []ElasticIP {
	var result []ElasticIP
	for _, region := range r.Regions {
		log := logrus.WithFields(logrus.Fields{"region": region, "account": accountID})
		log.Info("checking region for unused elastic ips")

		out, err := r.EC2(region).DescribeAddressesWithContext(ctx, &ec2.DescribeAddressesInput{})
		if err != nil {
			log.Errorf("error describing elastic ips: %v", err)
			continue
		}
		for _, a := range out.Addresses {
			if a.InstanceId != nil || a.AssociationId != nil {
				continue
			}
			domain := aws.StringValue(a.Domain)
			if domain == "" {
				domain = noName
			}
			result = append(result, ElasticIP{
				PublicIP:     aws.StringValue(a.PublicIp),
				AllocationID: aws.StringValue(a.AllocationId),
				Region:       region,
				AccountID:    accountID,
				Name:         r.AccountName,
				Domain:       domain,
			})
		}
	}
	return result
}

func nameTag(tags []*ec2.Tag) string {
	for _, t := range tags {
		if aws.StringValue(t.Key) == "Name" {
			return aws.StringValue(t.Value)
		}
	}
	return noName
}

func VolumesCSV(volumes []Volume) ([]byte, error) {
	rows := make([][]string, 0, len(volumes))
	for _, v := range volumes {
		rows = append(rows, []string{v.VolumeID, v.VolumeName, v.Region, v.AccountID, v.Name, v.CreationDate})
	}
	return writeCSV([]string{"VolumeId", "VolumeName", "Region", "AccountId", "Name", "CreationDate"}, rows)
}

func ElasticIPsCSV(ips []ElasticIP) ([]byte, error) {
	rows := make([][]string, 0, len(ips))
	for _, ip := range ips {
		rows = append(rows, []string{ip.PublicIP, ip.AllocationID, ip.Region, ip.AccountID, ip.Name, ip.Domain})
	}
	return writeCSV([]string{"PublicIp", "AllocationId", "Region", "AccountId", "Name", "Domain"}, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("report: writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Run builds the report of the given kind and mails it. It returns the number
// of listed resources.
func (r *Reporter) Run(ctx context.Context, kind string) (int, error) {
	accountID, err := r.accountID(ctx)
	if err != nil {
		return 0, err
	}
	logrus.WithField("account", accountID).Infof("processing account %s", r.AccountName)

	var (
		count               int
		data                []byte
		file, subject, body string
	)
	switch kind {
	case KindVolumes:
		volumes := r.UnusedVolumes(ctx, accountID)
		count = len(volumes)
		data, err = VolumesCSV(volumes)
		file = "unused_volumes.csv"
		subject = "Warning - Unused Volume List"
		body = "This email is being sent to provide you with information regarding the details of unused EBS volumes in each account. " +
			"Please review the attached file and take appropriate action as necessary."
	case KindElasticIPs:
		ips := r.UnusedElasticIPs(ctx, accountID)
		count = len(ips)
		data, err = ElasticIPsCSV(ips)
		file = "unused_elastic_ips.csv"
		subject = "Warning - Unused Elastic IPs List"
		body = "This email contains information regarding unused Elastic IPs in various accounts. " +
			"Please review the attached file and take appropriate action as necessary."
	default:
		return 0, fmt.Errorf("report: unknown kind %q", kind)
	}
	if err != nil {
		return 0, err
	}

	err = r.Transport.Send(ctx, notify.Message{
		From:        r.Mail.From,
		To:          r.Mail.To,
		Cc:          r.Mail.Cc,
		Subject:     subject,
		Body:        body,
		Attachments: []notify.Attachment{{Name: file, Data: data}},
	})
	if err != nil {
		return count, fmt.Errorf("report: sending %s: %w", file, err)
	}
	return count, nil
}
