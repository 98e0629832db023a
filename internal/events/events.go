// Package events publishes marketplace domain events to other services.
package events

import (
	"context"
	"fmt"
)

// Subjects are relative; publishers prepend their configured prefix.
const (
	SubjectOffers    = "offers"
	SubjectMessages  = "messages"
	SubjectPurchases = "purchases"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// Subject joins a base subject and a qualifier, e.g. offers.accepted.
func Subject(base string, qualifier any) string {
	return fmt.Sprintf("%s.%v", base, qualifier)
}

// Nop drops every event.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() {}
