package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/models"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/pubsub"
)

// DefaultTopN is how many recommendations Recommend returns when topN is unset
const DefaultTopN = 10

// EventSource is the subscribing half of the event bus
type EventSource interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Server implements the gRPC DraftService
type Server struct {
	session  *draft.Session
	events   EventSource
	defaults models.LeagueSettings
}

var _ DraftServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server
func NewServer(session *draft.Session, events EventSource, defaults models.LeagueSettings) *Server {
	return &Server{
		session:  session,
		events:   events,
		defaults: defaults,
	}
}

// GetState returns the current draft state
func (s *Server) GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	logger.Debug("gRPC: Getting draft state")
	state, err := s.session.State()
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(state)
}

// Initialize starts a new draft. Fields missing from the request keep the default league settings.
func (s *Server) Initialize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	settings := s.defaults
	if err := fromStruct(req, &settings); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid league settings: %v", err)
	}

	state, err := s.session.Initialize(ctx, settings)
	if err != nil {
		logger.Warn("gRPC: Failed to initialize draft", "error", err)
		return nil, statusError(err)
	}
	return toStruct(state)
}

// DraftPlayer drafts a player to a team
func (s *Server) DraftPlayer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		PlayerID string `json:"playerId"`
		TeamID   int    `json:"teamId"`
	}
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid pick: %v", err)
	}
	if in.PlayerID == "" {
		return nil, status.Error(codes.InvalidArgument, "playerId is required")
	}

	logger.Info("gRPC: Drafting player", "player_id", in.PlayerID, "team_id", in.TeamID)
	result, err := s.session.DraftPlayer(ctx, in.PlayerID, in.TeamID)
	if err != nil {
		logger.Warn("gRPC: Failed to draft player", "error", err, "player_id", in.PlayerID, "team_id", in.TeamID)
		return nil, statusError(err)
	}
	return toStruct(result)
}

// CurrentTeam returns the team on the clock
func (s *Server) CurrentTeam(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	teamID, err := s.session.CurrentTeamID()
	if err != nil {
		return nil, statusError(err)
	}
	return structpb.NewStruct(map[string]interface{}{"teamId": teamID})
}

// Recommend ranks available players for teamId, or for the team on the clock when teamId is 0
func (s *Server) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		TeamID int `json:"teamId"`
		TopN   int `json:"topN"`
	}
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid recommendation request: %v", err)
	}
	if in.TopN == 0 {
		in.TopN = DefaultTopN
	}

	teamID := in.TeamID
	if teamID == 0 {
		var err error
		if teamID, err = s.session.CurrentTeamID(); err != nil {
			return nil, statusError(err)
		}
	}

	recs, err := s.session.Recommend(teamID, in.TopN)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(map[string]interface{}{
		"teamId":          teamID,
		"recommendations": recs,
	})
}

// ResetDraft resets the draft
func (s *Server) ResetDraft(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	logger.Info("gRPC: Resetting draft")
	if err := s.session.Reset(ctx); err != nil {
		logger.Error("gRPC: Failed to reset draft", "error", err)
		return nil, statusError(err)
	}
	return &emptypb.Empty{}, nil
}

// StreamEvents streams draft events to clients
func (s *Server) StreamEvents(req *emptypb.Empty, stream grpc.ServerStream) error {
	logger.Debug("gRPC: New client connected to event stream")
	eventChan := s.events.Subscribe()
	defer s.events.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := toStruct(event)
			if err != nil {
				logger.Warn("gRPC: Failed to encode event", "error", err, "type", event.Type)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{draft.ErrInvalidConfiguration, codes.InvalidArgument},
	{draft.ErrInvalidTeam, codes.InvalidArgument},
	{draft.ErrUnknownPlayer, codes.NotFound},
	{draft.ErrPlayerAlreadyDrafted, codes.AlreadyExists},
	{draft.ErrOutOfTurn, codes.FailedPrecondition},
	{draft.ErrNoSlotAvailable, codes.FailedPrecondition},
	{draft.ErrDraftAlreadyComplete, codes.FailedPrecondition},
	{draft.ErrNotInitialized, codes.FailedPrecondition},
	{draft.ErrNoEligibleCandidates, codes.FailedPrecondition},
}

// CodeForError maps a draft error to a gRPC status code
func CodeForError(err error) codes.Code {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return codes.Internal
}

func statusError(err error) error {
	return status.Error(CodeForError(err), err.Error())
}

// toStruct converts v through its JSON encoding so gRPC clients see the HTTP API shapes
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	if in == nil || len(in.GetFields()) == 0 {
		return nil
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
