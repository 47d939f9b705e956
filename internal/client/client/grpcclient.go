package client

import (
	"context"
	"fmt"
	"time"

	pb "github.com/dmitrijs2005/gophactivate/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Registration is what the server reports after sign-up.
type Registration struct {
	UserID        string
	Email         string
	Status        string
	CodeExpiresAt time.Time
	Warning       string
}

// Activation is the account state after a successful activation.
type Activation struct {
	UserID      string
	Email       string
	Status      string
	ActivatedAt *time.Time
}

// Resend reports the new code's expiry.
type Resend struct {
	CodeExpiresAt time.Time
	Warning       string
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.ActivationServiceClient
}

func NewActivationClientService(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewActivationServiceClient(conn)
	return nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) (*Registration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &pb.RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &Registration{
		UserID:        resp.UserID,
		Email:         resp.Email,
		Status:        resp.Status,
		CodeExpiresAt: resp.CodeExpiresAt,
		Warning:       resp.Warning,
	}, nil
}

func (s *GRPCClient) Activate(ctx context.Context, email, password, code string) (*Activation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Activate(ctx, &pb.ActivateRequest{Email: email, Password: password, Code: code})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &Activation{
		UserID:      resp.UserID,
		Email:       resp.Email,
		Status:      resp.Status,
		ActivatedAt: resp.ActivatedAt,
	}, nil
}

func (s *GRPCClient) ResendActivation(ctx context.Context, email, password string) (*Resend, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ResendActivation(ctx, &pb.ResendActivationRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &Resend{CodeExpiresAt: resp.CodeExpiresAt, Warning: resp.Warning}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// mapError turns a gRPC status into a sentinel, keeping the server's
// message for argument errors.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return ErrAlreadyRegistered
	case codes.FailedPrecondition:
		return ErrAlreadyActive
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
