//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/accirescue/internal/api/grpc/arbitration"
	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	pb "github.com/oshokin/accirescue/internal/pb/v1"
)

// Client wraps the gRPC AlertService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alert server.
	conn *grpc.ClientConn
	// api is the AlertService client interface.
	api pb.AlertServiceClient

	// callTimeout is the default timeout for unary calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alert server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alert server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewAlertServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Respond submits a decision. Rejected submissions come back as domain errors:
// *domain.ValidationError or *domain.ConflictError naming the winner.
func (c *Client) Respond(ctx context.Context, responderID string, decision domain.Decision) (*pb.RespondResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &pb.RespondRequest{
		ResponderID: responderID,
		Decision:    string(decision),
	}

	response, err := c.api.Respond(callCtx, request.Struct())
	if err != nil {
		return nil, fmt.Errorf("respond: %w", api.FromStatus(err))
	}

	return pb.RespondResponseFromStruct(response), nil
}

// GetState retrieves the arbitration snapshot.
func (c *Client) GetState(ctx context.Context) (*pb.StateResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetState(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return pb.StateResponseFromStruct(response), nil
}

// OpenAlert starts a new alert cycle at the location.
func (c *Client) OpenAlert(ctx context.Context, at domain.Location) (*pb.OpenAlertResponse, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &pb.OpenAlertRequest{
		Latitude:  at.Latitude,
		Longitude: at.Longitude,
	}

	response, err := c.api.OpenAlert(callCtx, request.Struct())
	if err != nil {
		return nil, fmt.Errorf("open alert: %w", err)
	}

	return pb.OpenAlertResponseFromStruct(response), nil
}

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	// subscribed runs once the server has registered the stream.
	subscribed func() bool
}

// WithSubscribed runs fn once the server confirms the stream is registered,
// before any event is read. Returning false ends the watch without error.
// Polling the state here cannot miss an event broadcast in between.
func WithSubscribed(fn func() bool) WatchOption {
	return func(o *watchOptions) {
		o.subscribed = fn
	}
}

// errWatchNotRegistered is returned when the stream ends before its header.
var errWatchNotRegistered = errors.New("watch stream ended before registration")

// Watch opens the event stream and delivers every event to handle until the
// stream ends, handle returns false, or ctx is canceled. No call timeout applies.
func (c *Client) Watch(ctx context.Context, handle func(*pb.Event) bool, opts ...WatchOption) error {
	var options watchOptions
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.api.Watch(ctx, new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	header, err := stream.Header()
	if err != nil {
		return fmt.Errorf("watch header: %w", err)
	}

	if len(header.Get(pb.WatchObserverHeader)) == 0 {
		if _, err = stream.Recv(); err == nil {
			err = errWatchNotRegistered
		}

		return fmt.Errorf("watch: %w", err)
	}

	if options.subscribed != nil && !options.subscribed() {
		return nil
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("receive event: %w", err)
		}

		if !handle(pb.EventFromStruct(msg)) {
			return nil
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
