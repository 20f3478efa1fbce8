package arbitration

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Respond(ctx context.Context, submission domain.Submission) (*domain.Verdict, error)
	OpenAlert(ctx context.Context, at domain.Location) (*domain.Alert, []*domain.NotificationRecord)
	State(ctx context.Context) *domain.LockState
	Subscribe(kind string) *broadcast.Observer
	Unsubscribe(o *broadcast.Observer)
}

// ObserverKind tags hub observers created by Watch.
const ObserverKind = "grpc"

// Server implements the AlertService gRPC API.
type Server struct {
	pb.UnimplementedAlertServiceServer

	// service provides the arbitration logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Respond resolves a responder submission.
func (s *Server) Respond(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := pb.RespondRequestFromStruct(req)

	verdict, err := s.service.Respond(ctx, domain.Submission{
		ResponderID: in.GetResponderID(),
		Decision:    in.GetDecision(),
	})
	if err != nil {
		return nil, ToStatus(err)
	}

	out := &pb.RespondResponse{
		Message: verdict.Message(),
		Outcome: string(verdict.Outcome),
		By:      verdict.By,
		AlertID: verdict.AlertID,
	}

	return out.Struct(), nil
}

// GetState returns the arbitration snapshot.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toProtoState(s.service.State(ctx)).Struct(), nil
}

// OpenAlert starts a new alert cycle.
func (s *Server) OpenAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := pb.OpenAlertRequestFromStruct(req)
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	alert, sent := s.service.OpenAlert(ctx, domain.Location{
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	})

	out := &pb.OpenAlertResponse{
		AlertID:  alert.ID,
		OpenedAt: alert.OpenedAt,
	}

	for _, record := range sent {
		if strings.HasPrefix(record.Status, domain.StatusFailedPrefix) {
			out.Failed++
		} else {
			out.Notified++
		}
	}

	return out.Struct(), nil
}

// Watch streams broadcast events until the client leaves or the hub closes.
// The observer ID header is sent after registration, so a client reading it
// knows every later event reaches the stream. An evicted stream ends with
// ResourceExhausted.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	observer := s.service.Subscribe(ObserverKind)
	defer s.service.Unsubscribe(observer)

	ctx = logger.WithKV(ctx, "observer_id", observer.ID)

	if err := stream.SendHeader(metadata.Pairs(pb.WatchObserverHeader, observer.ID)); err != nil {
		return err
	}

	logger.Debug(ctx, "Watch stream opened")

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Watch stream closed by client")

			return nil
		case event, ok := <-observer.Events():
			if !ok {
				if observer.Evicted() {
					return status.Error(codes.ResourceExhausted, "watch stream fell behind, poll the state")
				}

				return nil
			}

			if err := stream.Send(toProtoEvent(event).Struct()); err != nil {
				return err
			}
		}
	}
}

// ToStatus maps a domain error to a gRPC status error.
func ToStatus(err error) error {
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &conflict):
		st := status.New(codes.AlreadyExists, conflict.Error())

		detailed, detailErr := st.WithDetails((&pb.ConflictDetail{Winner: conflict.Winner}).Struct())
		if detailErr != nil {
			return st.Err()
		}

		return detailed.Err()
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, "unable to resolve submission")
	}
}

// FromStatus maps a gRPC status error back to the domain taxonomy.
// Errors that carry no domain meaning are returned unchanged.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.AlreadyExists:
		for _, detail := range st.Details() {
			s, isStruct := detail.(*structpb.Struct)
			if !isStruct {
				continue
			}

			if conflict := pb.ConflictDetailFromStruct(s); conflict != nil {
				return &domain.ConflictError{Winner: conflict.Winner}
			}
		}

		return err
	case codes.InvalidArgument:
		return domain.NewValidationError("", st.Message())
	default:
		return err
	}
}

// toProtoState converts a lock snapshot to a wire message.
func toProtoState(state *domain.LockState) *pb.StateResponse {
	if state == nil {
		return new(pb.StateResponse)
	}

	return &pb.StateResponse{
		AlertID:    state.AlertID,
		IsLocked:   state.IsLocked,
		AcceptedBy: state.AcceptedBy,
		OpenedAt:   state.OpenedAt,
		DecidedAt:  state.DecidedAt,
	}
}

// toProtoEvent converts a broadcast event to a wire message.
func toProtoEvent(event domain.Event) *pb.Event {
	return &pb.Event{
		Responder: event.Responder,
		Response:  string(event.Response),
		Redirect:  event.Redirect,
	}
}
