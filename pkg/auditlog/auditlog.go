// Package auditlog keeps an append-only history of detected changes per domain.
package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/acorn-io/dnswatch/pkg/model"
)

type Appender interface {
	Append(ctx context.Context, domain string, event model.ChangeEvent) error
}

type Reader interface {
	Events(ctx context.Context, domain string) ([]model.ChangeEvent, error)
}

// Log is an audit log that can be both appended to and read back.
type Log interface {
	Appender
	Reader
}

// LogKey is the object key holding a domain's history.
func LogKey(prefix, domain string) string {
	return prefix + domain + "-changes.log"
}

// encodeEvent renders one event as a single JSON line.
func encodeEvent(event model.ChangeEvent) ([]byte, error) {
	line, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding change event for %s: %w", event.Domain, err)
	}
	return append(line, '\n'), nil
}

// appendLine adds line to an existing log, keeping prior content verbatim.
func appendLine(existing, line []byte) []byte {
	out := make([]byte, 0, len(existing)+len(line)+1)
	out = append(out, existing...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return append(out, line...)
}

// decodeEvents reads consecutive JSON documents. Entries written as indented,
// multi-line JSON by older checkers decode the same as single-line entries.
func decodeEvents(data []byte) ([]model.ChangeEvent, error) {
	var events []model.ChangeEvent
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var e model.ChangeEvent
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decoding change log entry %d: %w", len(events)+1, err)
		}
		events = append(events, e)
	}
}
