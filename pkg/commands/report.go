package commands

import (
	"github.com/acorn-io/dnswatch/pkg/report"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var defaultReportRegions = []string{"ap-south-1", "ap-southeast-1", "me-south-1", "me-central-1"}

type reportCmd struct{}

func (s *reportCmd) Execute(c *cli.Context) error {
	ctx := signals.SetupSignalContext()

	mailCfg := mailConfig(c)
	if err := mailCfg.Validate(); err != nil {
		return err
	}
	transport, err := newTransport(mailCfg)
	if err != nil {
		return err
	}

	r, err := report.New(splitList(c.StringSlice("regions")), c.String("account-name"), transport, report.Mail{
		From: mailCfg.Sender,
		To:   mailCfg.Recipients,
		Cc:   splitList(c.StringSlice("cc-email")),
	})
	if err != nil {
		return err
	}

	for _, kind := range splitList(c.StringSlice("kind")) {
		n, err := r.Run(ctx, kind)
		if err != nil {
			return err
		}
		logrus.WithField("kind", kind).Infof("reported %d unused resources", n)
	}
	return nil
}

func reportCommand() *cli.Command {
	cmd := reportCmd{}

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "kind",
			Usage:   "Report to send: volumes, elastic-ips",
			EnvVars: []string{"REPORT_KIND"},
			Value:   cli.NewStringSlice(report.KindVolumes, report.KindElasticIPs),
		},
		&cli.StringSliceFlag{
			Name:    "regions",
			Usage:   "Regions to scan",
			EnvVars: []string{"REPORT_REGIONS"},
			Value:   cli.NewStringSlice(defaultReportRegions...),
		},
		&cli.StringFlag{
			Name:    "account-name",
			Usage:   "Display name of the scanned account",
			EnvVars: []string{"ACCOUNT_NAME"},
		},
		&cli.StringSliceFlag{
			Name:    "cc-email",
			EnvVars: []string{"CC_EMAIL"},
		},
	}
	flags = append(flags, mailFlags()...)

	return &cli.Command{
		Name:   "report",
		Usage:  "mail CSV reports of unattached EBS volumes and unassociated Elastic IPs",
		Action: cmd.Execute,
		Flags:  append(flags, GlobalFlags()...),
		Before: Before,
	}
}
