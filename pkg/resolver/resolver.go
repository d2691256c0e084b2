// Package resolver builds a record snapshot for a domain by looking up every
// tracked record type through a pluggable Lookuper.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"
)

var ErrInvalidDomain = errors.New("invalid domain name")

type Status int

const (
	// Found means the lookup returned at least one value.
	Found Status = iota
	// NoData means the name or the type does not exist.
	NoData
	// Failed means the lookup could not be completed. The values are empty.
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NoData:
		return "nodata"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// LookupResult is the outcome of one (domain, type) lookup.
type LookupResult struct {
	Status Status
	Values []string
	Err    error
}

func found(values []string) LookupResult {
	if len(values) == 0 {
		return LookupResult{Status: NoData, Values: []string{}}
	}
	return LookupResult{Status: Found, Values: values}
}

func noData() LookupResult {
	return LookupResult{Status: NoData, Values: []string{}}
}

func failed(err error) LookupResult {
	return LookupResult{Status: Failed, Values: []string{}, Err: err}
}

// Lookuper answers a single (domain, type) question against some DNS provider.
type Lookuper interface {
	Lookup(ctx context.Context, domain, rType string) LookupResult
}

type Resolver interface {
	Resolve(ctx context.Context, domain string) (model.Snapshot, error)
}

type resolver struct {
	lookuper Lookuper
	types    []string
}

// New returns a Resolver querying all tracked record types through l.
func New(l Lookuper) Resolver {
	return &resolver{
		lookuper: l,
		types:    model.RecordTypes,
	}
}

// Resolve never fails because of a single record type. It only returns an
// error when the domain itself is unusable or ctx is done.
func (r *resolver) Resolve(ctx context.Context, domain string) (model.Snapshot, error) {
	if _, err := NormalizeDomain(domain); err != nil {
		return nil, err
	}

	log := logrus.WithField("domain", domain)
	snapshot := make(model.Snapshot, len(r.types))
	for _, t := range r.types {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", domain, err)
		}

		res := r.lookuper.Lookup(ctx, domain, t)
		switch res.Status {
		case Found:
			snapshot[t] = res.Values
		case NoData:
			snapshot[t] = []string{}
		default:
			log.WithField("type", t).Warnf("lookup failed, recording no values: %v", res.Err)
			snapshot[t] = []string{}
		}
	}

	// a deadline hit during the last lookup would otherwise pass as no data
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}

	return snapshot, nil
}

// NormalizeDomain trims, lower-cases and IDNA-encodes a domain name.
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidDomain)
	}
	ascii, err := idna.ToASCII(d)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDomain, domain, err)
	}
	if len(ascii) > 253 {
		return "", fmt.Errorf("%w %q: longer than 253 characters", ErrInvalidDomain, domain)
	}
	for _, label := range strings.Split(ascii, ".") {
		if !validLabel(label) {
			return "", fmt.Errorf("%w %q: bad label %q", ErrInvalidDomain, domain, label)
		}
	}
	return ascii, nil
}

// validLabel accepts hostname labels plus underscores (_dmarc, _domainkey)
// and a leading wildcard.
func validLabel(label string) bool {
	if label == "*" {
		return true
	}
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
