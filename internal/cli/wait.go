package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"vatfiler/internal/oauth"
)

// DefaultPollInterval is how often WaitForConnection checks the server.
const DefaultPollInterval = 500 * time.Millisecond

// StatusSource reports the connection state.
type StatusSource interface {
	Status(ctx context.Context) (oauth.Status, error)
}

// WaitOptions tunes WaitForConnection.
type WaitOptions struct {
	PollInterval time.Duration
	// Quiet suppresses the spinner.
	Quiet  bool
	Writer io.Writer
}

// WaitForConnection polls until the server reports a fresh connection or
// ctx ends. A connection counts as fresh when its expiry differs from
// initial, the status taken before the browser was opened, so
// re-connecting is detected too.
func WaitForConnection(ctx context.Context, source StatusSource, initial oauth.Status, opts WaitOptions) (oauth.Status, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	if !opts.Quiet {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if opts.Writer != nil {
			s.Writer = opts.Writer
		}
		s.Suffix = " Waiting for HMRC authorization in the browser..."
		s.Start()
		defer s.Stop()
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return oauth.Status{}, &AuthFailedError{Reason: errors.New("timed out waiting for authorization")}
			}
			return oauth.Status{}, ctx.Err()
		case <-ticker.C:
		}

		status, err := source.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			var connErr *ConnectionError
			if errors.As(err, &connErr) {
				return oauth.Status{}, err
			}
			continue
		}
		if status.Connected && !status.Expired && !sameExpiry(initial, status) {
			return status, nil
		}
	}
}

func sameExpiry(a, b oauth.Status) bool {
	if !a.Connected || a.ExpiresAt == nil || b.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.Equal(*b.ExpiresAt)
}
