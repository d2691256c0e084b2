package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	defaultResolvConf    = "/etc/resolv.conf"
	defaultDNSTimeout    = 5 * time.Second
	defaultRetryInterval = 200 * time.Millisecond
)

type DNSConfig struct {
	// Server is the nameserver as host or host:port. Empty means the first
	// nameserver of /etc/resolv.conf.
	Server        string
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
}

// DNSLookuper queries a recursive nameserver over the DNS wire protocol.
type DNSLookuper struct {
	server  string
	udp     *dns.Client
	tcp     *dns.Client
	backoff wait.Backoff
}

func NewDNSLookuper(cfg DNSConfig) (*DNSLookuper, error) {
	server, err := nameserver(cfg.Server)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	return &DNSLookuper{
		server: server,
		udp:    &dns.Client{Net: "udp", Timeout: timeout},
		tcp:    &dns.Client{Net: "tcp", Timeout: timeout},
		backoff: wait.Backoff{
			Duration: interval,
			Factor:   2,
			Jitter:   0.1,
			Steps:    retries + 1,
		},
	}, nil
}

func nameserver(server string) (string, error) {
	if server == "" {
		cc, err := dns.ClientConfigFromFile(defaultResolvConf)
		if err != nil {
			return "", fmt.Errorf("no nameserver configured and %s is unreadable: %w", defaultResolvConf, err)
		}
		if len(cc.Servers) == 0 {
			return "", fmt.Errorf("no nameserver configured and %s lists none", defaultResolvConf)
		}
		return net.JoinHostPort(cc.Servers[0], cc.Port), nil
	}

	if _, _, err := net.SplitHostPort(server); err != nil {
		return net.JoinHostPort(server, "53"), nil
	}
	return server, nil
}

func (l *DNSLookuper) Server() string {
	return l.server
}

func (l *DNSLookuper) Lookup(ctx context.Context, domain, rType string) LookupResult {
	qtype, ok := dns.StringToType[rType]
	if !ok {
		return failed(fmt.Errorf("unsupported record type %s", rType))
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	var (
		resp    *dns.Msg
		lastErr error
	)
	err := wait.ExponentialBackoff(l.backoff, func() (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r, err := l.exchange(ctx, msg)
		if err != nil {
			lastErr = err
			return false, nil
		}
		if r.Rcode == dns.RcodeServerFailure {
			lastErr = errors.New("server failure")
			return false, nil
		}
		resp = r
		return true, nil
	})
	if err != nil {
		if errors.Is(err, wait.ErrWaitTimeout) && lastErr != nil {
			err = lastErr
		}
		return failed(fmt.Errorf("%s %s: %w", domain, rType, err))
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return noData()
	default:
		return failed(fmt.Errorf("%s %s: %s", domain, rType, dns.RcodeToString[resp.Rcode]))
	}

	var values []string
	for _, rr := range resp.Answer {
		// answers may carry the CNAME chain that led to the requested type
		if rr.Header().Rrtype != qtype {
			continue
		}
		values = append(values, strings.TrimPrefix(rr.String(), rr.Header().String()))
	}
	return found(values)
}

func (l *DNSLookuper) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	r, _, err := l.udp.ExchangeContext(ctx, msg, l.server)
	if err != nil {
		return nil, err
	}
	if r.Truncated {
		r, _, err = l.tcp.ExchangeContext(ctx, msg, l.server)
	}
	return r, err
}
