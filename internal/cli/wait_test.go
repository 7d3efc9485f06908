package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatfiler/internal/oauth"
)

// scriptedStatus returns each status in turn and then repeats the last.
type scriptedStatus struct {
	mu       sync.Mutex
	statuses []oauth.Status
	errs     []error
	calls    int
}

func (s *scriptedStatus) Status(context.Context) (oauth.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return oauth.Status{}, s.errs[i]
	}
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return s.statuses[i], nil
}

func TestWaitForConnection_NewConnection(t *testing.T) {
	expires := time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)
	source := &scriptedStatus{statuses: []oauth.Status{
		{},
		{Connected: true, ExpiresAt: &expires},
	}}

	status, err := WaitForConnection(context.Background(), source, oauth.Status{}, WaitOptions{PollInterval: time.Millisecond, Quiet: true})
	require.NoError(t, err)
	assert.True(t, status.Connected)
}

func TestWaitForConnection_Reconnect(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	renewed := old.Add(4 * time.Hour)
	initial := oauth.Status{Connected: true, ExpiresAt: &old}
	source := &scriptedStatus{statuses: []oauth.Status{
		{Connected: true, ExpiresAt: &old},
		{Connected: true, ExpiresAt: &renewed},
	}}

	status, err := WaitForConnection(context.Background(), source, initial, WaitOptions{PollInterval: time.Millisecond, Quiet: true})
	require.NoError(t, err)
	assert.True(t, status.ExpiresAt.Equal(renewed))
	assert.Equal(t, 2, source.calls)
}

func TestWaitForConnection_Timeout(t *testing.T) {
	source := &scriptedStatus{statuses: []oauth.Status{{}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := WaitForConnection(ctx, source, oauth.Status{}, WaitOptions{PollInterval: time.Millisecond, Quiet: true})
	var failed *AuthFailedError
	require.True(t, errors.As(err, &failed))
}

func TestWaitForConnection_ServerGone(t *testing.T) {
	gone := &ConnectionError{Endpoint: "http://localhost:3000", Type: ConnectionErrorNetwork, Reason: errors.New("connection refused")}
	source := &scriptedStatus{
		statuses: []oauth.Status{{}},
		errs:     []error{gone},
	}

	_, err := WaitForConnection(context.Background(), source, oauth.Status{}, WaitOptions{PollInterval: time.Millisecond, Quiet: true})
	assert.ErrorIs(t, err, gone)
}
