// Package statusrpc exposes the latest plant snapshot over gRPC.
//
// The service is described by hand with well-known types so no generated
// code is needed:
//
//	service StatusService {
//	  rpc GetStatus(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
//
// The plant is selected with the "plant" request metadata key and defaults
// to the server's own plant. The Struct carries the same fields as the HTTP
// /status/current response.
package statusrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/HatiCode/plantwater/pkg/storage"
)

const (
	ServiceName     = "plantwater.v1.StatusService"
	GetStatusMethod = "/" + ServiceName + "/GetStatus"

	// PlantKey is the metadata key naming the requested plant.
	PlantKey = "plant"
)

// StatusServer is the server API for StatusService.
type StatusServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc is the grpc.ServiceDesc for StatusService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "plantwater/v1/status.proto",
}

// RegisterStatusServer registers srv on s.
func RegisterStatusServer(s grpc.ServiceRegistrar, srv StatusServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStatusMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Server serves snapshots from a storage.Store.
type Server struct {
	store        storage.Store
	defaultPlant string
	logger       *slog.Logger
}

func NewServer(store storage.Store, defaultPlant string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:        store,
		defaultPlant: defaultPlant,
		logger:       logger.With("component", "statusrpc"),
	}
}

func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	plant := s.defaultPlant
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(PlantKey); len(v) > 0 && v[0] != "" {
			plant = v[0]
		}
	}

	snap, found, err := s.store.GetLatest(plant)
	if err != nil {
		s.logger.Error("failed to get snapshot", "plant", plant, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	if !found {
		return nil, status.Errorf(codes.NotFound, "no snapshot for plant %q", plant)
	}

	out, err := SnapshotToStruct(snap)
	if err != nil {
		s.logger.Error("failed to encode snapshot", "plant", plant, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// Client calls StatusService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetStatus fetches the latest snapshot for plant. An empty plant asks for
// the server's default plant.
func (c *Client) GetStatus(ctx context.Context, plant string, opts ...grpc.CallOption) (storage.Snapshot, error) {
	if plant != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, PlantKey, plant)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return storage.Snapshot{}, err
	}
	return SnapshotFromStruct(out)
}

// SnapshotToStruct converts snap through its JSON form.
func SnapshotToStruct(snap storage.Snapshot) (*structpb.Struct, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("snapshot to struct: %w", err)
	}
	return out, nil
}

// SnapshotFromStruct is the inverse of SnapshotToStruct.
func SnapshotFromStruct(s *structpb.Struct) (storage.Snapshot, error) {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return storage.Snapshot{}, err
	}
	var snap storage.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return storage.Snapshot{}, fmt.Errorf("struct to snapshot: %w", err)
	}
	return snap, nil
}
