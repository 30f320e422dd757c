package rpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return s, nil
}
