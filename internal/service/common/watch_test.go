//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	api "github.com/oshokin/accirescue/internal/api/grpc/arbitration"
	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
)

// hubService serves Watch from a hub; the other calls are unused here.
type hubService struct {
	hub *broadcast.Hub
}

func (h *hubService) Respond(context.Context, domain.Submission) (*domain.Verdict, error) {
	return &domain.Verdict{Outcome: domain.OutcomeRejected}, nil
}

func (h *hubService) OpenAlert(_ context.Context, at domain.Location) (*domain.Alert, []*domain.NotificationRecord) {
	return &domain.Alert{ID: "a1", Location: at}, nil
}

func (h *hubService) State(context.Context) *domain.LockState { return new(domain.LockState) }

func (h *hubService) Subscribe(kind string) *broadcast.Observer { return h.hub.Subscribe(kind) }

func (h *hubService) Unsubscribe(o *broadcast.Observer) { h.hub.Unsubscribe(o) }

// newBufconnClient serves the hub over an in-memory listener.
func newBufconnClient(t *testing.T, hub *broadcast.Hub) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterAlertServiceServer(srv, api.NewServer(&hubService{hub: hub}))

	go func() {
		_ = srv.Serve(lis) //nolint:errcheck // Stopped by cleanup.
	}()

	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := &Client{conn: conn, api: pb.NewAlertServiceClient(conn)}
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// TestClient_WatchSubscribed verifies the hook runs after registration and can end the watch.
func TestClient_WatchSubscribed(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub(8)
	t.Cleanup(hub.Close)

	client := newBufconnClient(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	registered := -1

	err := client.Watch(ctx, func(*pb.Event) bool {
		require.FailNow(t, "no event expected")

		return false
	}, WithSubscribed(func() bool {
		registered = hub.Count()

		return false
	}))
	require.NoError(t, err)
	require.Equal(t, 1, registered)
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// TestClient_WatchDeliversAfterSubscribed verifies that an event broadcast
// right after registration is not lost.
func TestClient_WatchDeliversAfterSubscribed(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub(8)
	t.Cleanup(hub.Close)

	client := newBufconnClient(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []*pb.Event

	err := client.Watch(ctx, func(event *pb.Event) bool {
		got = append(got, event)

		return !event.GetRedirect()
	}, WithSubscribed(func() bool {
		hub.Broadcast(ctx, domain.RejectedEvent("PoliceB"))
		hub.Broadcast(ctx, domain.AcceptedEvent("HospitalA"))

		return true
	}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "PoliceB", got[0].Responder)
	require.True(t, got[1].GetRedirect())
}
