package updater

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/domain/release"
	service "github.com/oshokin/release-channels/internal/service/updater"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	FetchUpdate(ctx context.Context) (*release.Metadata, error)
	InstallUpdate(ctx context.Context, progress release.Progress) error
	SetChannel(ctx context.Context, c channel.Channel) error
	GetChannel(ctx context.Context) channel.Channel
	AvailableChannels(ctx context.Context) []channel.Channel
}

// Server implements UpdaterServer on top of a Service.
type Server struct {
	// service provides the update orchestration.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(svc Service) *Server {
	return &Server{
		service: svc,
	}
}

// FetchUpdate returns {version, currentVersion} or an empty struct when up to date.
func (s *Server) FetchUpdate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	metadata, err := s.service.FetchUpdate(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return MetadataToStruct(metadata), nil
}

// InstallUpdate installs the pending update. Progress is logged by the service.
func (s *Server) InstallUpdate(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.InstallUpdate(ctx, release.Discard); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// SetChannel selects the channel named by the request.
func (s *Server) SetChannel(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "channel is required")
	}

	c, err := channel.FromTag(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	if err = s.service.SetChannel(ctx, c); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// GetChannel returns the selected channel tag.
func (s *Server) GetChannel(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.service.GetChannel(ctx).String()), nil
}

// AvailableChannels returns every channel tag in display order.
func (s *Server) AvailableChannels(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	channels := s.service.AvailableChannels(ctx)

	values := make([]*structpb.Value, 0, len(channels))
	for _, c := range channels {
		values = append(values, structpb.NewStringValue(c.String()))
	}

	return &structpb.ListValue{Values: values}, nil
}

// MetadataToStruct converts update metadata to its wire form.
func MetadataToStruct(metadata *release.Metadata) *structpb.Struct {
	if metadata == nil {
		return new(structpb.Struct)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"version":        structpb.NewStringValue(metadata.Version),
			"currentVersion": structpb.NewStringValue(metadata.CurrentVersion),
		},
	}
}

// MetadataFromStruct converts the wire form back; an empty struct means no update.
func MetadataFromStruct(s *structpb.Struct) *release.Metadata {
	if len(s.GetFields()) == 0 {
		return nil
	}

	return &release.Metadata{
		Version:        s.GetFields()["version"].GetStringValue(),
		CurrentVersion: s.GetFields()["currentVersion"].GetStringValue(),
	}
}

// toStatus maps service errors to gRPC codes keeping the message readable.
func toStatus(err error) error {
	code := codes.Internal

	switch {
	case errors.Is(err, service.ErrNoPendingUpdate):
		code = codes.FailedPrecondition
	case errors.Is(err, channel.ErrUnknown):
		code = codes.InvalidArgument
	case errors.Is(err, service.ErrCheckFailed), errors.Is(err, service.ErrInstallFailed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}

	return status.Error(code, err.Error())
}
