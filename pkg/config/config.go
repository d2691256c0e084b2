// Package config holds the settings of a check run. A Config is built once at
// process start and passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/acorn-io/dnswatch/pkg/db"
	"github.com/acorn-io/dnswatch/pkg/resolver"
	"go.yaml.in/yaml/v3"
)

const (
	ProviderDNS        = "dns"
	ProviderRoute53    = "route53"
	ProviderCloudflare = "cloudflare"
)

var ErrNoDomains = errors.New("no domains configured")

type Config struct {
	Domains      []string
	Concurrency  int
	CycleTimeout time.Duration

	// CurrentTypesOnly compares only the record types of the current lookup.
	CurrentTypesOnly bool

	Store    StoreConfig
	Resolver ResolverConfig
	Audit    AuditConfig
	Mail     MailConfig
}

type StoreConfig struct {
	Dialect string
	// DSN overrides the MySQL connection parameters below.
	DSN      string
	Host     string
	User     string
	Password string
	Database string

	RedisAddr string
	RedisDB   int
}

// DataSource returns the DSN to open, building one from the discrete MySQL
// parameters when no DSN was given.
func (s StoreConfig) DataSource() string {
	if s.DSN != "" || s.Dialect != db.DialectMySQL {
		return s.DSN
	}
	return db.MySQLDSN(s.Host, s.User, s.Password, s.Database)
}

type ResolverConfig struct {
	Provider string
	Server   string
	Timeout  time.Duration
	Retries  int

	Route53ZoneID string

	CloudflareToken string
	CloudflareZone  string
}

type AuditConfig struct {
	Bucket string
	Prefix string
	Region string
}

type MailConfig struct {
	Sender     string
	Recipients []string
	Host       string
	Port       int
	Username   string
	Password   string
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Domains) == 0 {
		errs = append(errs, ErrNoDomains)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative"))
	}

	switch c.Store.Dialect {
	case db.DialectMySQL:
		if c.Store.DSN == "" && (c.Store.Host == "" || c.Store.User == "" || c.Store.Database == "") {
			errs = append(errs, fmt.Errorf("mysql store requires a DSN or host, user and database"))
		}
	case db.DialectSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("sqlite store requires a DSN"))
		}
	case db.DialectRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("redis store requires an address"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store dialect %q", c.Store.Dialect))
	}

	switch c.Resolver.Provider {
	case ProviderDNS:
	case ProviderRoute53:
		if c.Resolver.Route53ZoneID == "" {
			errs = append(errs, fmt.Errorf("route53 resolver requires a hosted zone id"))
		}
	case ProviderCloudflare:
		if c.Resolver.CloudflareToken == "" || c.Resolver.CloudflareZone == "" {
			errs = append(errs, fmt.Errorf("cloudflare resolver requires an api token and zone"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported resolver provider %q", c.Resolver.Provider))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks the relay settings. The relay requires authentication,
// so the SMTP credentials are mandatory.
func (m MailConfig) Validate() error {
	var errs []error

	if m.Sender == "" {
		errs = append(errs, fmt.Errorf("sender email is required"))
	}
	if len(m.Recipients) == 0 {
		errs = append(errs, fmt.Errorf("recipient email is required"))
	}
	if m.Host == "" {
		errs = append(errs, fmt.Errorf("smtp server is required"))
	}
	if m.Port <= 0 || m.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid smtp port %d", m.Port))
	}
	if m.Username == "" || m.Password == "" {
		errs = append(errs, fmt.Errorf("smtp username and password are required"))
	}

	return errors.Join(errs...)
}

// ParseDomains splits comma separated entries, normalizes every name and drops
// blanks and duplicates while keeping the first-seen order.
func ParseDomains(entries ...string) ([]string, error) {
	var (
		domains []string
		seen    = map[string]bool{}
	)
	for _, entry := range entries {
		for _, raw := range strings.Split(entry, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			d, err := resolver.NormalizeDomain(raw)
			if err != nil {
				return nil, err
			}
			if seen[d] {
				continue
			}
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return domains, nil
}

type domainsFile struct {
	Domains []string `yaml:"domains"`
}

// LoadDomainsFile reads domain names from a YAML file holding either a plain
// list or a mapping with a "domains" list.
func LoadDomainsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domains file: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return ParseDomains(list...)
	}

	var f domainsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domains file: %w", err)
	}
	return ParseDomains(f.Domains...)
}
