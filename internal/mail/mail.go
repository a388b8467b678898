// Package mail delivers verification codes to account email addresses.
package mail

import "context"

// Sender delivers one message. Implementations wrap transport failures in
// common.ErrTransportFailure so callers can tell delivery problems apart
// from bad input.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
