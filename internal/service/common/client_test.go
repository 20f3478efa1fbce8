//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_UnreachableServer verifies that calls fail once the deadline passes.
func TestClient_UnreachableServer(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "127.0.0.1:1", WithCallTimeout(200*time.Millisecond))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.GetState(context.Background())
	require.Error(t, err)
}

// TestClient_CloseNil ensures Close tolerates an unconnected client.
func TestClient_CloseNil(t *testing.T) {
	t.Parallel()

	var c *Client

	require.NoError(t, c.Close())
	require.NoError(t, new(Client).Close())
}
