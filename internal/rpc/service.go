// Package rpc exposes the heatmap control panel over gRPC.
package rpc

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/controls"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/model"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Panel is the slice of controls.Panel the service drives.
type Panel interface {
	Parameters() model.HeatmapParameters
	Set(name controls.Parameter, v float64) (float64, error)
	Trigger(ctx context.Context) (*core.PassResult, error)
	LastResult() *core.PassResult
}

// ControlService implements ControlServer on top of a Panel.
type ControlService struct {
	panel Panel
	log   logging.Logger
}

var _ ControlServer = (*ControlService)(nil)

// NewControlService builds the service.
func NewControlService(panel Panel, log logging.Logger) *ControlService {
	if log == nil {
		log = logging.Noop()
	}
	return &ControlService{panel: panel, log: log}
}

// GetParameters returns the current parameter values.
func (s *ControlService) GetParameters(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := toStruct(controls.ParametersMap(s.panel.Parameters()))
	return out, ToStatusError(err)
}

// SetParameter expects {"name": <parameter>, "value": <number>}. The stored
// value may differ from the requested one because setters clamp.
func (s *ControlService) SetParameter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	name := fields["name"].GetStringValue()
	if name == "" {
		return nil, ToStatusError(fmt.Errorf("%w: name is required", ErrInvalidRequest))
	}
	raw, ok := fields["value"]
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: value is required", ErrInvalidRequest))
	}
	if _, isNum := raw.GetKind().(*structpb.Value_NumberValue); !isNum {
		return nil, ToStatusError(fmt.Errorf("%w: value must be a number", ErrInvalidRequest))
	}
	requested := raw.GetNumberValue()

	param := controls.Parameter(name)
	stored, err := s.panel.Set(param, requested)
	if err != nil {
		s.log.Warn(ctx, "set parameter rejected",
			logging.String("name", name),
			logging.Err(err),
		)
		return nil, ToStatusError(err)
	}
	s.log.Info(ctx, "parameter updated",
		logging.String("name", name),
		logging.Float("requested", requested),
		logging.Float("stored", stored),
	)

	out, err := toStruct(map[string]any{
		"name":       name,
		"value":      stored,
		"label":      param.Label(stored),
		"clamped":    stored != requested,
		"parameters": controls.ParametersMap(s.panel.Parameters()),
	})
	return out, ToStatusError(err)
}

// Regenerate runs a pass with the current parameters.
func (s *ControlService) Regenerate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res, err := s.panel.Trigger(ctx)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := toStruct(controls.PassSummary(res))
	return out, ToStatusError(err)
}

// GetLastPass returns the most recent successful pass.
func (s *ControlService) GetLastPass(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res := s.panel.LastResult()
	if res == nil {
		return nil, ToStatusError(ErrNoPass)
	}
	out, err := toStruct(controls.PassSummary(res))
	return out, ToStatusError(err)
}
