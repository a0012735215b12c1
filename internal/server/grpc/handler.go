package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/cargotrack/internal/tracker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Snapshot returns the local snapshot, the session user and the sync state.
func (s *GRPCServer) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	v := s.tracker.View()

	out, err := toStruct(map[string]any{
		"state":    v.State.String(),
		"version":  v.Version,
		"session":  v.Session,
		"snapshot": v.Snapshot,
	})
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// Sync triggers a full sync and reports the resulting entity counts.
func (s *GRPCServer) Sync(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	if err := s.tracker.Sync(ctx); err != nil {
		switch {
		case errors.Is(err, tracker.ErrAuthFailure):
			return nil, status.Error(codes.Unauthenticated, err.Error())
		case errors.Is(err, tracker.ErrFetchFailure):
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	v := s.tracker.View()
	counts := map[string]any{}
	for k, n := range v.Counts() {
		counts[string(k)] = n
	}

	out, err := toStruct(map[string]any{
		"state":   v.State.String(),
		"version": v.Version,
		"counts":  counts,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStruct goes through JSON so model tags decide the field names.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
