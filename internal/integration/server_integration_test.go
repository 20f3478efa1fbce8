package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/service/common"
	"github.com/oshokin/accirescue/internal/service/server"
)

// testServer describes a running alert server.
type testServer struct {
	// grpcAddress is the gRPC address clients dial.
	grpcAddress string
	// httpURL is the base URL of the responder gateway.
	httpURL string
	// configPath is the settings file shared with client commands.
	configPath string
	// recordsPath is the notification log.
	recordsPath string
}

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// testResponders is the static directory used by the server under test.
func testResponders() []domain.Responder {
	return []domain.Responder{
		{ID: "HospitalA", Role: domain.RoleHospital, Phone: "+15550000001", Location: domain.Location{Latitude: 12.98, Longitude: 77.6}},
		{ID: "PoliceB", Role: domain.RolePolice, Phone: "+15550000002", Location: domain.Location{Latitude: 13.0, Longitude: 77.6}},
		{ID: "FarHospital", Role: domain.RoleHospital, Phone: "+15550000003", Location: domain.Location{Latitude: 19.07, Longitude: 72.87}},
	}
}

// startServer runs the alert server until the test ends.
func startServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	ts := &testServer{
		grpcAddress: reservePort(t),
		configPath:  filepath.Join(dir, "settings.yaml"),
		recordsPath: filepath.Join(dir, "records.jsonl"),
	}

	httpAddress := reservePort(t)
	ts.httpURL = "http://" + httpAddress

	require.NoError(t, config.Save(ts.configPath, &config.Config{
		ServerAddress: ts.grpcAddress,
		HTTPAddress:   httpAddress,
		ResponseURL:   ts.httpURL + "/",
		RecordsFile:   ts.recordsPath,
		Timeout:       3 * time.Second,
		Detection:     config.Detection{Verdict: true},
		Dispatch:      config.Dispatch{RadiusKM: 50},
		Responders:    testResponders(),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    ts.configPath,
			ListenAddress: ts.grpcAddress,
		})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(15 * time.Second):
			t.Error("server did not stop")
		}
	})

	client := dial(t, ts)

	require.Eventually(t, func() bool {
		_, err := client.GetState(context.Background())
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	return ts
}

// dial connects a client to the server and closes it with the test.
func dial(t *testing.T, ts *testServer) *common.Client {
	t.Helper()

	client, err := common.Dial(context.Background(), ts.grpcAddress, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// getJSON fetches path from the gateway and decodes the body into out.
func getJSON(t *testing.T, ts *testServer, path string, out any) int {
	t.Helper()

	resp, err := http.Get(ts.httpURL + path) //nolint:noctx // Short-lived test request.
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))

	return resp.StatusCode
}

// waitObservers blocks until the server reports want connected observers.
func waitObservers(t *testing.T, ts *testServer, want int) {
	t.Helper()

	require.Eventually(t, func() bool {
		var health struct {
			Observers int `json:"observers"`
		}

		return getJSON(t, ts, "/health", &health) == http.StatusOK && health.Observers == want
	}, 5*time.Second, 20*time.Millisecond)
}
