package grpc

import (
	"errors"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps validation and service errors onto gRPC statuses.
func toStatus(err error) error {
	switch {
	case errors.Is(err, validation.ErrInvalidEmail),
		errors.Is(err, validation.ErrInvalidPassword),
		errors.Is(err, validation.ErrMalformedCode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateEmail.Error())
	case common.IsAuthFailure(err):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredential.Error())
	case errors.Is(err, common.ErrAlreadyActive), errors.Is(err, common.ErrInvalidStateTransition):
		return status.Error(codes.FailedPrecondition, common.ErrAlreadyActive.Error())
	case common.IsCodeFailure(err):
		return status.Error(codes.InvalidArgument, common.ErrInvalidOrExpiredCode.Error())
	case errors.Is(err, common.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
