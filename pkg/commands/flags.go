package commands

import (
	"strings"
	"time"

	"github.com/acorn-io/dnswatch/pkg/auditlog"
	"github.com/acorn-io/dnswatch/pkg/config"
	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/notify"
	"github.com/urfave/cli/v2"
)

const defaultSMTPServer = "email-smtp.us-east-1.amazonaws.com"

// mailFlags are shared by every command that sends mail.
func mailFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sender-email",
			Usage:   "From address of outgoing mail",
			EnvVars: []string{"SENDER_EMAIL"},
		},
		&cli.StringSliceFlag{
			Name:    "recipient-email",
			Usage:   "Recipient of outgoing mail, may be repeated or comma separated",
			EnvVars: []string{"RECIPIENT_EMAIL"},
		},
		&cli.StringFlag{
			Name:    "smtp-server",
			Usage:   "SMTP relay host",
			EnvVars: []string{"SMTP_SERVER"},
			Value:   defaultSMTPServer,
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Usage:   "SMTP relay port, STARTTLS is mandatory",
			EnvVars: []string{"SMTP_PORT"},
			Value:   notify.DefaultSMTPPort,
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			EnvVars: []string{"SMTP_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			EnvVars: []string{"SMTP_PASSWORD"},
		},
	}
}

// checkFlags configure a check cycle: domains, store, resolver and audit log.
func checkFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "domains",
			Usage:   "Domains to watch, may be repeated or comma separated",
			EnvVars: []string{"DOMAIN_NAMES"},
		},
		&cli.StringFlag{
			Name:    "domains-file",
			Usage:   "YAML file listing domains to watch",
			EnvVars: []string{"DOMAINS_FILE"},
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Number of domains checked at once",
			EnvVars: []string{"CONCURRENCY"},
			Value:   1,
		},
		&cli.DurationFlag{
			Name:    "cycle-timeout",
			Usage:   "Deadline of a whole check cycle, 0 disables it",
			EnvVars: []string{"CYCLE_TIMEOUT"},
		},
		&cli.BoolFlag{
			Name:    "current-types-only",
			Usage:   "Only compare record types present in the current lookup",
			EnvVars: []string{"CURRENT_TYPES_ONLY"},
		},
		&cli.StringFlag{
			Name:    "sql-dialect",
			Usage:   "The snapshot store to use: mysql, sqlite or redis",
			EnvVars: []string{"SQL_DIALECT"},
			Value:   db.DialectMySQL,
		},
		&cli.StringFlag{
			Name:    "sql-dsn",
			Usage:   "The DSN to connect to, overrides the mysql-* flags",
			EnvVars: []string{"SQL_DSN"},
		},
		&cli.StringFlag{
			Name:    "mysql-host",
			EnvVars: []string{"MYSQL_HOST"},
		},
		&cli.StringFlag{
			Name:    "mysql-user",
			EnvVars: []string{"MYSQL_USER"},
		},
		&cli.StringFlag{
			Name:    "mysql-password",
			EnvVars: []string{"MYSQL_PASS"},
		},
		&cli.StringFlag{
			Name:    "mysql-db",
			EnvVars: []string{"MYSQL_DB"},
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			EnvVars: []string{"REDIS_ADDR"},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			EnvVars: []string{"REDIS_DB"},
		},
		&cli.StringFlag{
			Name:    "resolver",
			Usage:   "Where records are looked up: dns, route53 or cloudflare",
			EnvVars: []string{"RESOLVER"},
			Value:   config.ProviderDNS,
		},
		&cli.StringFlag{
			Name:    "dns-server",
			Usage:   "Nameserver as host or host:port, defaults to the first of /etc/resolv.conf",
			EnvVars: []string{"DNS_SERVER"},
		},
		&cli.DurationFlag{
			Name:    "dns-timeout",
			EnvVars: []string{"DNS_TIMEOUT"},
			Value:   5 * time.Second,
		},
		&cli.IntFlag{
			Name:    "dns-retries",
			EnvVars: []string{"DNS_RETRIES"},
			Value:   2,
		},
		&cli.StringFlag{
			Name:    "route53-zone-id",
			EnvVars: []string{"ROUTE53_ZONE_ID"},
		},
		&cli.StringFlag{
			Name:    "cloudflare-api-token",
			EnvVars: []string{"CLOUDFLARE_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "cloudflare-zone",
			EnvVars: []string{"CLOUDFLARE_ZONE"},
		},
		&cli.StringFlag{
			Name:    "log-bucket",
			Usage:   "S3 bucket holding the change logs",
			EnvVars: []string{"LOG_BUCKET"},
			Value:   auditlog.DefaultBucket,
		},
		&cli.StringFlag{
			Name:    "log-prefix",
			Usage:   "Key prefix of the change logs",
			EnvVars: []string{"LOG_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			EnvVars: []string{"AWS_REGION"},
		},
	}

	return append(flags, mailFlags()...)
}

func mailConfig(c *cli.Context) config.MailConfig {
	return config.MailConfig{
		Sender:     c.String("sender-email"),
		Recipients: splitList(c.StringSlice("recipient-email")),
		Host:       c.String("smtp-server"),
		Port:       c.Int("smtp-port"),
		Username:   c.String("smtp-username"),
		Password:   c.String("smtp-password"),
	}
}

// loadConfig builds and validates the check configuration from flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	domains, err := config.ParseDomains(c.StringSlice("domains")...)
	if err != nil {
		return nil, err
	}
	if path := c.String("domains-file"); path != "" {
		fromFile, err := config.LoadDomainsFile(path)
		if err != nil {
			return nil, err
		}
		if domains, err = config.ParseDomains(append(domains, fromFile...)...); err != nil {
			return nil, err
		}
	}

	cfg := &config.Config{
		Domains:          domains,
		Concurrency:      c.Int("concurrency"),
		CycleTimeout:     c.Duration("cycle-timeout"),
		CurrentTypesOnly: c.Bool("current-types-only"),
		Store: config.StoreConfig{
			Dialect:   c.String("sql-dialect"),
			DSN:       c.String("sql-dsn"),
			Host:      c.String("mysql-host"),
			User:      c.String("mysql-user"),
			Password:  c.String("mysql-password"),
			Database:  c.String("mysql-db"),
			RedisAddr: c.String("redis-addr"),
			RedisDB:   c.Int("redis-db"),
		},
		Resolver: config.ResolverConfig{
			Provider:        c.String("resolver"),
			Server:          c.String("dns-server"),
			Timeout:         c.Duration("dns-timeout"),
			Retries:         c.Int("dns-retries"),
			Route53ZoneID:   c.String("route53-zone-id"),
			CloudflareToken: c.String("cloudflare-api-token"),
			CloudflareZone:  c.String("cloudflare-zone"),
		},
		Audit: config.AuditConfig{
			Bucket: c.String("log-bucket"),
			Prefix: c.String("log-prefix"),
			Region: c.String("aws-region"),
		},
		Mail: mailConfig(c),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(entries []string) []string {
	var out []string
	for _, e := range entries {
		for _, v := range strings.Split(e, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
