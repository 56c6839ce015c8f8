// Package channel implements the gRPC transport between joynr runtimes.
//
// A runtime serves the joynr.messaging.Channel service and hands every received
// message to its messaging.Receiver, normally the message router. Remote
// participants are reached through a Client per messaging.ChannelAddress.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// ErrNilReceiver is returned when a server is created without a receiver
var ErrNilReceiver = errors.New("receiver cannot be nil")

// Server accepts messages from remote runtimes
type Server struct {
	config     *Config
	receiver   messaging.Receiver
	grpcServer *grpc.Server
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewServer creates a channel server delivering to receiver. logger may be nil.
func NewServer(config *Config, receiver messaging.Receiver, logger *slog.Logger) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if receiver == nil {
		return nil, ErrNilReceiver
	}

	// Make a copy and set defaults
	configCopy := *config
	configCopy.SetDefaults()

	s := &Server{
		config:   &configCopy,
		receiver: receiver,
		logger:   logger,
		grpcServer: grpc.NewServer(
			grpc.MaxRecvMsgSize(configCopy.MaxMessageSize),
		),
	}
	s.grpcServer.RegisterService(&channelServiceDesc, s)
	return s, nil
}

// ListenAndServe listens on the configured address and serves until Close
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Close
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Transmit handles one incoming message
func (s *Server) Transmit(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	channelID, msg, err := decodeFrame(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed frame: %v", err)
	}
	if channelID != s.config.ChannelID {
		return nil, status.Errorf(codes.NotFound, "unknown channel %q", channelID)
	}

	if err := s.receiver.Receive(ctx, msg); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to deliver message from channel",
				slog.String("messageId", msg.ID),
				slog.String("recipient", msg.Recipient),
				slog.Any("error", err))
		}
		if errors.Is(err, messagerouter.ErrMessageExpired) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &emptypb.Empty{}, nil
}

// Close stops the server, waiting for in-flight messages
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.grpcServer.GracefulStop()
	return nil
}
