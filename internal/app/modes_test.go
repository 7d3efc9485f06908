package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServer_ServesUntilCancelled(t *testing.T) {
	services, err := InitializeServices(testSettings(t), "dev")
	require.NoError(t, err)
	require.NoError(t, services.Server.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, services) }()

	resp, err := http.Get("http://" + services.Server.Addr() + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancellation")
	}
	assert.False(t, services.Watcher.IsRunning())
}
