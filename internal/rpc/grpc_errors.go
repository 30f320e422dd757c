package rpc

import (
	"errors"

	"github.com/signalsfoundry/rf-heatmap/internal/controls"
	"github.com/signalsfoundry/rf-heatmap/internal/scene"
	"github.com/signalsfoundry/rf-heatmap/kb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidRequest flags a malformed request message.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoPass is returned when no pass has completed yet.
	ErrNoPass = errors.New("no heatmap pass has completed")
)

// ToStatusError maps heatmap errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNoPass),
		errors.Is(err, kb.ErrObjectNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, controls.ErrUnknownParameter),
		errors.Is(err, controls.ErrInvalidValue):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, controls.ErrDegenerateRange),
		errors.Is(err, kb.ErrNotPointCloud),
		errors.Is(err, scene.ErrNotPointCloud):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, kb.ErrObjectExists),
		errors.Is(err, scene.ErrObjectExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
