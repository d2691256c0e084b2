// Package notify delivers operator alerts by mail.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/acorn-io/dnswatch/pkg/model"
	"golang.org/x/exp/maps"
	"k8s.io/apimachinery/pkg/util/sets"
)

type Attachment struct {
	Name string
	Data []byte
}

type Message struct {
	From        string
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Transport submits a fully addressed message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

type mailNotifier struct {
	transport Transport
	from      string
	to        []string
}

// New returns a Notifier sending plain text mail from sender to recipients.
func New(transport Transport, sender string, recipients ...string) (Notifier, error) {
	if sender == "" {
		return nil, errors.New("notifier: sender address is required")
	}
	if len(recipients) == 0 {
		return nil, errors.New("notifier: at least one recipient is required")
	}
	return &mailNotifier{
		transport: transport,
		from:      sender,
		to:        recipients,
	}, nil
}

func (n *mailNotifier) Notify(ctx context.Context, subject, body string) error {
	return n.transport.Send(ctx, Message{
		From:    n.from,
		To:      n.to,
		Subject: subject,
		Body:    body,
	})
}

// ChangeAlert renders the subject and body of the mail announcing event.
func ChangeAlert(event model.ChangeEvent) (string, string, error) {
	subject := fmt.Sprintf("ALERT: DNS records changed for %s", event.Domain)

	var b strings.Builder
	fmt.Fprintf(&b, "DNS records changed for domain: %s\n\n", event.Domain)

	for _, t := range sets.NewString(maps.Keys(event.Changes)...).List() {
		change := event.Changes[t]
		fmt.Fprintf(&b, "%s:\n", t)
		for _, v := range change.Removed {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
		for _, v := range change.Added {
			fmt.Fprintf(&b, "  + %s\n", v)
		}
	}

	details, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding change event for %s: %w", event.Domain, err)
	}
	fmt.Fprintf(&b, "\nChanges:\n%s\n", details)

	return subject, b.String(), nil
}
