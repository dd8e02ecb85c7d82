package fuzz

import (
	"context"
	"testing"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	grpcserver "github.com/Billy-Davies-2/gridiron-draft-assistant/internal/grpc"
)

// FuzzGRPCDraftPlayer fuzzes the gRPC DraftPlayer endpoint
func FuzzGRPCDraftPlayer(f *testing.F) {
	// Seed corpus
	f.Add("11", 1.0)
	f.Add("invalid", 999.0)
	f.Add("", 0.0)
	f.Add("11", -1.5)

	f.Fuzz(func(t *testing.T, playerID string, teamID float64) {
		s, ps := newSession(t)
		server := grpcserver.NewServer(s, ps, league())

		req := &structpb.Struct{Fields: map[string]*structpb.Value{
			"playerId": structpb.NewStringValue(playerID),
			"teamId":   structpb.NewNumberValue(teamID),
		}}

		// Should not panic
		_, _ = server.DraftPlayer(context.Background(), req)
	})
}

// FuzzGRPCInitialize fuzzes the gRPC Initialize endpoint with arbitrary JSON objects
func FuzzGRPCInitialize(f *testing.F) {
	f.Add(`{"teamCount":8}`)
	f.Add(`{"teamCount":"eight"}`)
	f.Add(`{}`)

	f.Fuzz(func(t *testing.T, data string) {
		req := new(structpb.Struct)
		if err := protojson.Unmarshal([]byte(data), req); err != nil {
			return
		}
		s, ps := newSession(t)
		server := grpcserver.NewServer(s, ps, league())

		_, _ = server.Initialize(context.Background(), req)
	})
}
