package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/gophactivate/internal/proto"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/server/services"
)

// Activator is the account activation core.
type Activator interface {
	Register(ctx context.Context, email, password string) (*services.RegistrationResult, error)
	Activate(ctx context.Context, email, password, code string) (*models.Account, error)
	ResendActivation(ctx context.Context, email, password string) (*services.ResendResult, error)
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	if err := s.check.Registration(req.Email, req.Password); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.svc.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.RegisterResponse{
		UserID:        result.Account.ID,
		Email:         result.Account.Email,
		Status:        string(result.Account.Status),
		CodeExpiresAt: result.ExpiresAt,
		Warning:       warning(result.DispatchWarning),
	}, nil
}

func (s *GRPCServer) Activate(ctx context.Context, req *pb.ActivateRequest) (*pb.ActivateResponse, error) {
	if err := s.check.Activation(req.Email, req.Password, req.Code); err != nil {
		return nil, toStatus(err)
	}

	account, err := s.svc.Activate(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.ActivateResponse{
		UserID:      account.ID,
		Email:       account.Email,
		Status:      string(account.Status),
		ActivatedAt: account.ActivatedAt,
	}, nil
}

func (s *GRPCServer) ResendActivation(ctx context.Context, req *pb.ResendActivationRequest) (*pb.ResendActivationResponse, error) {
	if err := s.check.Credentials(req.Email, req.Password); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.svc.ResendActivation(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.ResendActivationResponse{
		CodeExpiresAt: result.ExpiresAt,
		Warning:       warning(result.DispatchWarning),
	}, nil
}

func warning(err error) string {
	if err == nil {
		return ""
	}
	return "activation email could not be sent, request a new code"
}
