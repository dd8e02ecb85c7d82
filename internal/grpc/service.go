package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "draftassist.v1.DraftService"

// DraftServiceServer is the server API for DraftService. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP API.
type DraftServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Initialize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DraftPlayer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CurrentTeam(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Recommend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetDraft(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStream) error
}

// RegisterDraftServiceServer registers srv on s
func RegisterDraftServiceServer(s grpc.ServiceRegistrar, srv DraftServiceServer) {
	s.RegisterService(&DraftServiceDesc, srv)
}

// DraftServiceDesc describes DraftService for grpc.Server
var DraftServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DraftServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetState", func() proto.Message { return new(emptypb.Empty) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.GetState(ctx, req.(*emptypb.Empty))
			}),
		unaryMethod("Initialize", func() proto.Message { return new(structpb.Struct) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.Initialize(ctx, req.(*structpb.Struct))
			}),
		unaryMethod("DraftPlayer", func() proto.Message { return new(structpb.Struct) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.DraftPlayer(ctx, req.(*structpb.Struct))
			}),
		unaryMethod("CurrentTeam", func() proto.Message { return new(emptypb.Empty) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.CurrentTeam(ctx, req.(*emptypb.Empty))
			}),
		unaryMethod("Recommend", func() proto.Message { return new(structpb.Struct) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.Recommend(ctx, req.(*structpb.Struct))
			}),
		unaryMethod("ResetDraft", func() proto.Message { return new(emptypb.Empty) },
			func(s DraftServiceServer, ctx context.Context, req proto.Message) (proto.Message, error) {
				return s.ResetDraft(ctx, req.(*emptypb.Empty))
			}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			ServerStreams: true,
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				in := new(emptypb.Empty)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(DraftServiceServer).StreamEvents(in, stream)
			},
		},
	},
	Metadata: "draftassist/v1/draft.proto",
}

func unaryMethod(
	name string,
	newReq func() proto.Message,
	call func(DraftServiceServer, context.Context, proto.Message) (proto.Message, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DraftServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(DraftServiceServer), ctx, req.(proto.Message))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls DraftService over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection such as one from grpc.NewClient
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
}

// GetState fetches the draft snapshot
func (c *Client) GetState(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "GetState", &emptypb.Empty{}, out)
}

// Initialize starts a draft; settings fields left out keep the server defaults
func (c *Client) Initialize(ctx context.Context, settings *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "Initialize", settings, out)
}

// DraftPlayer submits a pick
func (c *Client) DraftPlayer(ctx context.Context, playerID string, teamID int) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"playerId": playerID, "teamId": teamID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "DraftPlayer", in, out)
}

// CurrentTeam returns the team on the clock
func (c *Client) CurrentTeam(ctx context.Context) (int, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "CurrentTeam", &emptypb.Empty{}, out); err != nil {
		return 0, err
	}
	return int(out.GetFields()["teamId"].GetNumberValue()), nil
}

// Recommend ranks players for teamID (0 means the team on the clock)
func (c *Client) Recommend(ctx context.Context, teamID, topN int) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"teamId": teamID, "topN": topN})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "Recommend", in, out)
}

// ResetDraft discards the active draft
func (c *Client) ResetDraft(ctx context.Context) error {
	return c.invoke(ctx, "ResetDraft", &emptypb.Empty{}, &emptypb.Empty{})
}

// StreamEvents opens the server event stream
func (c *Client) StreamEvents(ctx context.Context) (grpc.ClientStream, error) {
	desc := &DraftServiceDesc.Streams[0]
	stream, err := c.cc.NewStream(ctx, desc, "/"+ServiceName+"/StreamEvents")
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return stream, nil
}
