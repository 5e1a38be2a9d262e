package telephony

import (
	"context"
	"time"
)

// ContactStatus is the platform's view of one call
type ContactStatus struct {
	Active         bool
	State          string
	DisconnectedAt *time.Time
}

// Gateway wraps the telephony platform. All operations are network calls;
// failures are reported as booleans or empty values, never retried here.
// Retry policy belongs to callers.
type Gateway interface {
	// PlaceCall dials an outbound call and returns the platform contact id
	PlaceCall(ctx context.Context, phoneNumber, interviewContext, openingPrompt string) (string, error)

	// ReadAttributes returns the contact attribute map; empty on failure
	ReadAttributes(ctx context.Context, contactID string) map[string]string

	// WriteAttribute sets one contact attribute; false on failure
	WriteAttribute(ctx context.Context, contactID, key, value string) bool

	// QueryStatus reports whether the contact is still connected
	QueryStatus(ctx context.Context, contactID string) ContactStatus

	// Terminate hangs up the contact; false on failure
	Terminate(ctx context.Context, contactID string) bool

	// RecordingLocation returns the storage bucket and prefix where the
	// platform writes call recordings
	RecordingLocation(ctx context.Context) (bucket, prefix string, err error)
}
