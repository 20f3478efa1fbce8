package arbitration

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
)

var errTestInternal = errors.New("test internal error")

// fakeService implements Service for unit testing the transport.
type fakeService struct {
	// respondFn overrides Respond when set.
	respondFn func(ctx context.Context, submission domain.Submission) (*domain.Verdict, error)
	// state is returned from State.
	state *domain.LockState
	// hub serves Subscribe and Unsubscribe.
	hub *broadcast.Hub
}

func (f *fakeService) Respond(ctx context.Context, submission domain.Submission) (*domain.Verdict, error) {
	if f.respondFn != nil {
		return f.respondFn(ctx, submission)
	}

	return &domain.Verdict{Outcome: domain.OutcomeAccepted, By: submission.ResponderID, AlertID: "a1"}, nil
}

func (f *fakeService) OpenAlert(_ context.Context, at domain.Location) (*domain.Alert, []*domain.NotificationRecord) {
	alert := &domain.Alert{ID: "a2", Location: at, OpenedAt: time.Now()}

	return alert, []*domain.NotificationRecord{
		{Status: domain.StatusSent},
		{Status: domain.StatusSent},
		{Status: domain.StatusFailedPrefix + "boom"},
	}
}

func (f *fakeService) State(context.Context) *domain.LockState { return f.state }

func (f *fakeService) Subscribe(kind string) *broadcast.Observer { return f.hub.Subscribe(kind) }

func (f *fakeService) Unsubscribe(o *broadcast.Observer) { f.hub.Unsubscribe(o) }

// TestServer_Respond_ErrorMapping verifies the domain error taxonomy becomes gRPC codes.
func TestServer_Respond_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "validation", err: domain.NewValidationError("response", domain.MessageInvalidResponse), code: codes.InvalidArgument},
		{name: "conflict", err: &domain.ConflictError{Winner: "HospitalA"}, code: codes.AlreadyExists},
		{name: "internal", err: errTestInternal, code: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewServer(&fakeService{
				respondFn: func(context.Context, domain.Submission) (*domain.Verdict, error) {
					return nil, tt.err
				},
			})

			_, err := s.Respond(context.Background(), (&pb.RespondRequest{ResponderID: "x", Decision: "accept"}).Struct())
			require.Equal(t, tt.code, status.Code(err))
		})
	}

	_, err := NewServer(new(fakeService)).Respond(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestStatusRoundtrip verifies that the winner survives the status detail.
func TestStatusRoundtrip(t *testing.T) {
	t.Parallel()

	err := FromStatus(ToStatus(&domain.ConflictError{Winner: "HospitalA"}))

	var conflict *domain.ConflictError

	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "HospitalA", conflict.Winner)
	require.EqualError(t, err, "Request already accepted by HospitalA")

	err = FromStatus(ToStatus(domain.NewValidationError("responder_id", domain.MessageRoleRequired)))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.EqualError(t, err, domain.MessageRoleRequired)

	require.ErrorIs(t, FromStatus(errTestInternal), errTestInternal)
	require.Equal(t, codes.Canceled, status.Code(ToStatus(context.Canceled)))
}

// TestServer_OpenAlert counts sent and failed notifications.
func TestServer_OpenAlert(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	resp, err := s.OpenAlert(context.Background(), (&pb.OpenAlertRequest{Latitude: 1, Longitude: 2}).Struct())
	require.NoError(t, err)

	out := pb.OpenAlertResponseFromStruct(resp)
	require.Equal(t, "a2", out.AlertID)
	require.Equal(t, 2, out.Notified)
	require.Equal(t, 1, out.Failed)
	require.False(t, out.OpenedAt.IsZero())
}

// TestServer_OverBufconn exercises unary calls and the Watch stream through a real gRPC stack.
func TestServer_OverBufconn(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub(8)
	t.Cleanup(hub.Close)

	svc := &fakeService{
		hub:   hub,
		state: &domain.LockState{AlertID: "a1", IsLocked: true, AcceptedBy: "HospitalA"},
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterAlertServiceServer(srv, NewServer(svc))

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

	t.Cleanup(func() {
		_ = conn.Close()
	})

	client := pb.NewAlertServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Respond(ctx, (&pb.RespondRequest{ResponderID: "HospitalA", Decision: "accept"}).Struct())
	require.NoError(t, err)
	require.Equal(t, "Request accepted by HospitalA", pb.RespondResponseFromStruct(resp).GetMessage())

	state, err := client.GetState(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, "HospitalA", pb.StateResponseFromStruct(state).GetAcceptedBy())

	stream, err := client.Watch(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	// The header arrives only after the stream is registered on the hub.
	header, err := stream.Header()
	require.NoError(t, err)
	require.Len(t, header.Get(pb.WatchObserverHeader), 1)
	require.Equal(t, 1, hub.Count())

	hub.Broadcast(ctx, domain.AcceptedEvent("HospitalA"))

	msg, err := stream.Recv()
	require.NoError(t, err)

	event := pb.EventFromStruct(msg)
	require.Equal(t, "HospitalA", event.Responder)
	require.Equal(t, "accepted", event.Response)
	require.True(t, event.GetRedirect())
}

// blockingStream is a Watch stream whose Send waits for release.
type blockingStream struct {
	grpc.ServerStream

	ctx     context.Context //nolint:containedctx // Stream contexts are part of the gRPC API.
	header  chan metadata.MD
	sending chan struct{}
	release chan struct{}
	sent    []*structpb.Struct
}

func (b *blockingStream) Context() context.Context { return b.ctx }

func (b *blockingStream) SendHeader(md metadata.MD) error {
	b.header <- md

	return nil
}

func (b *blockingStream) Send(msg *structpb.Struct) error {
	b.sending <- struct{}{}
	<-b.release

	b.sent = append(b.sent, msg)

	return nil
}

// TestServer_WatchEvicted verifies that a stream which falls behind ends with
// ResourceExhausted after sending what was queued.
func TestServer_WatchEvicted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := broadcast.NewHub(1)
	t.Cleanup(hub.Close)

	stream := &blockingStream{
		ctx:     ctx,
		header:  make(chan metadata.MD, 1),
		sending: make(chan struct{}, 4),
		release: make(chan struct{}),
	}

	done := make(chan error, 1)

	go func() {
		done <- NewServer(&fakeService{hub: hub}).Watch(new(emptypb.Empty), stream)
	}()

	md := <-stream.header
	require.Len(t, md.Get(pb.WatchObserverHeader), 1)

	// The first event is taken and held in Send, the second fills the queue.
	require.Equal(t, 1, hub.Broadcast(ctx, domain.RejectedEvent("PoliceB")))
	<-stream.sending
	require.Equal(t, 1, hub.Broadcast(ctx, domain.RejectedEvent("PoliceC")))
	require.Zero(t, hub.Broadcast(ctx, domain.AcceptedEvent("HospitalA")))
	require.Equal(t, uint64(1), hub.Evicted())

	close(stream.release)

	err := <-done
	require.Equal(t, codes.ResourceExhausted, status.Code(err))
	require.Len(t, stream.sent, 2)
	require.Equal(t, "PoliceC", pb.EventFromStruct(stream.sent[1]).Responder)
}
