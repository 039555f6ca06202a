// Package grpc содержит gRPC сервер сервиса заметок: health и reflection.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"notechan/internal/notes/config"
	"notechan/pkg/logger"
)

// ServiceName - имя сервиса в протоколе health.
const ServiceName = "notechan.notes"

const metadataRequestID = "x-request-id"

// Server представляет gRPC сервер.
type Server struct {
	server  *grpc.Server
	health  *health.Server
	address string

	mu       sync.Mutex
	listener net.Listener
}

// New создает gRPC сервер с зарегистрированными health и reflection.
func New(cfg *config.GRPCConfig) *Server {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	// До первой проверки хранилища сервис считается недоступным.
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		server:  server,
		health:  healthServer,
		address: cfg.GetAddress(),
	}
}

// RegisterService регистрирует дополнительные gRPC сервисы.
func (s *Server) RegisterService(registerFunc func(*grpc.Server)) {
	registerFunc(s.server)
}

// SetServing переключает статус ServiceName.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
}

// Start запускает gRPC сервер в фоне.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.Info(ctx, "gRPC server started", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.server.Serve(listener); err != nil {
			log.Error(ctx, "failed to serve gRPC", zap.Error(err))
		}
	}()

	return nil
}

// Addr возвращает фактический адрес после Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

// Stop переводит health в NOT_SERVING и останавливает сервер.
func (s *Server) Stop(ctx context.Context) {
	log := logger.Log(ctx)
	log.Info(ctx, "stopping gRPC server")

	s.health.Shutdown()
	s.server.GracefulStop()
}

// loggingInterceptor пишет в лог каждый unary вызов с request id из метаданных.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(metadataRequestID); len(ids) > 0 {
			requestID = ids[0]
		}
	}
	ctx = logger.NewRequestIDContext(ctx, requestID)

	start := time.Now()
	resp, err := handler(ctx, req)

	logger.Log(ctx).Debug(ctx, "gRPC call",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, err
}
