package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/acorn-io/dnswatch/pkg/auditlog"
	"github.com/acorn-io/dnswatch/pkg/config"
	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/diff"
	"github.com/acorn-io/dnswatch/pkg/monitor"
	"github.com/acorn-io/dnswatch/pkg/notify"
	"github.com/acorn-io/dnswatch/pkg/resolver"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// checker bundles everything a trigger surface needs to run cycles.
type checker struct {
	monitor *monitor.Monitor
	open    monitor.Opener
	audit   *auditlog.S3Log
	timeout time.Duration
}

func newChecker(cfg *config.Config, logLevel string) (*checker, error) {
	lookuper, err := newLookuper(cfg.Resolver)
	if err != nil {
		return nil, err
	}

	audit, err := auditlog.NewS3Log(cfg.Audit.Bucket, cfg.Audit.Prefix, cfg.Audit.Region)
	if err != nil {
		return nil, fmt.Errorf("creating change log: %w", err)
	}

	notifier, err := newNotifier(cfg.Mail)
	if err != nil {
		return nil, err
	}

	return &checker{
		monitor: &monitor.Monitor{
			Domains:     cfg.Domains,
			Resolver:    resolver.New(lookuper),
			Differ:      diff.Differ{CurrentKeysOnly: cfg.CurrentTypesOnly},
			Audit:       audit,
			Notifier:    notifier,
			Concurrency: cfg.Concurrency,
		},
		open:    storeOpener(cfg.Store, logLevel),
		audit:   audit,
		timeout: cfg.CycleTimeout,
	}, nil
}

func (c *checker) trigger(ctx context.Context) monitor.Status {
	return c.monitor.Trigger(ctx, c.open, c.timeout)
}

func newLookuper(cfg config.ResolverConfig) (resolver.Lookuper, error) {
	switch cfg.Provider {
	case config.ProviderRoute53:
		return resolver.NewRoute53Lookuper(cfg.Route53ZoneID)
	case config.ProviderCloudflare:
		return resolver.NewCloudflareLookuper(cfg.CloudflareToken, cfg.CloudflareZone)
	case config.ProviderDNS:
		l, err := resolver.NewDNSLookuper(resolver.DNSConfig{
			Server:  cfg.Server,
			Timeout: cfg.Timeout,
			Retries: cfg.Retries,
		})
		if err != nil {
			return nil, err
		}
		logrus.Debugf("resolving against %s", l.Server())
		return l, nil
	}
	return nil, fmt.Errorf("unsupported resolver provider %q", cfg.Provider)
}

func newNotifier(cfg config.MailConfig) (notify.Notifier, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return notify.New(transport, cfg.Sender, cfg.Recipients...)
}

func newTransport(cfg config.MailConfig) (*notify.SMTPTransport, error) {
	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
	})
}

// storeOpener opens a new store connection for every run.
func storeOpener(cfg config.StoreConfig, logLevel string) monitor.Opener {
	return func(ctx context.Context) (db.Database, error) {
		if cfg.Dialect == db.DialectRedis {
			return db.NewRedis(cfg.RedisAddr, cfg.RedisDB)
		}
		return db.New(ctx, cfg.Dialect, cfg.DataSource(), &gorm.Config{
			Logger: db.NewLogger(logLevel),
		})
	}
}
