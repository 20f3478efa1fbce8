package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/service/detector"
	"github.com/oshokin/accirescue/internal/service/responder"
	"github.com/oshokin/accirescue/internal/service/watcher"
)

// TestDispatcher_OpensAlertAndNotifies runs detection and checks the notification log.
func TestDispatcher_OpensAlertAndNotifies(t *testing.T) {
	t.Parallel()

	ts := startServer(t)

	frame := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(frame, []byte("not really a jpeg"), 0o600))

	resp, err := detector.Run(context.Background(), &detector.Options{
		ConfigPath: ts.configPath,
		FramePath:  frame,
		Location:   domain.Location{Latitude: 12.97, Longitude: 77.6},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 2, resp.Notified)

	f, err := os.Open(ts.recordsPath)
	require.NoError(t, err)

	defer func() {
		_ = f.Close()
	}()

	var sent []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record domain.NotificationRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		require.Equal(t, resp.AlertID, record.AlertID)
		require.Equal(t, domain.StatusSent, record.Status)
		require.False(t, record.Accepted)

		sent = append(sent, record.Role)
	}

	require.Equal(t, []string{"HospitalA", "PoliceB"}, sent)

	var log struct {
		AlertID string                       `json:"alert_id"`
		Records []*domain.NotificationRecord `json:"records"`
	}

	require.Equal(t, http.StatusOK, getJSON(t, ts, "/alerts/"+resp.AlertID+"/records", &log))
	require.Equal(t, resp.AlertID, log.AlertID)
	require.Len(t, log.Records, 2)

	var missing struct {
		Message string `json:"message"`
	}

	require.Equal(t, http.StatusNotFound, getJSON(t, ts, "/alerts/unknown/records", &missing))
}

// TestResponderAndWatcher runs the console commands against a live server.
func TestResponderAndWatcher(t *testing.T) {
	t.Parallel()

	ts := startServer(t)

	watchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	watched := make(chan error, 1)

	go func() {
		watched <- watcher.Run(watchCtx, &watcher.Options{
			ConfigPath:        ts.configPath,
			ReconnectInterval: 100 * time.Millisecond,
		})
	}()

	// The watcher is subscribed before the decisions are made.
	waitObservers(t, ts, 1)

	ctx := context.Background()

	err := responder.Run(ctx, &responder.Options{
		ConfigPath:  ts.configPath,
		ResponderID: "PoliceB",
		Decision:    "reject",
	})
	require.NoError(t, err)

	err = responder.Run(ctx, &responder.Options{
		ConfigPath:  ts.configPath,
		ResponderID: "HospitalA",
		Decision:    "accept",
	})
	require.NoError(t, err)

	err = responder.Run(ctx, &responder.Options{
		ConfigPath:  ts.configPath,
		ResponderID: "PoliceB",
		Decision:    "accept",
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	require.ErrorContains(t, err, "already accepted by HospitalA")

	err = responder.Run(ctx, &responder.Options{
		ConfigPath:  ts.configPath,
		ResponderID: "PoliceB",
		Decision:    "maybe",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	// The watcher leaves on the acceptance before its own deadline.
	select {
	case err := <-watched:
		require.NoError(t, err)
		require.NoError(t, watchCtx.Err())
	case <-time.After(10 * time.Second):
		require.FailNow(t, "watcher did not exit")
	}

	// A late watcher sees the decided alert and exits at once.
	err = watcher.Run(context.Background(), &watcher.Options{ConfigPath: ts.configPath})
	require.NoError(t, err)
}
