package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"coachbook/internal/config"
	"coachbook/internal/database"
	"coachbook/internal/domain"
	"coachbook/internal/models"
	"coachbook/internal/schedule"
	"coachbook/internal/service"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const bookingServiceName = "coachbook.v1.BookingService"

// BookingRPC is the gRPC surface. Messages are google.protobuf.Struct with the
// same field names as the JSON API.
type BookingRPC interface {
	GetAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListServices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func unaryMethod(name string, call func(BookingRPC, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingRPC), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + bookingServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingRPC), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingRPC)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetAvailability", BookingRPC.GetAvailability),
		unaryMethod("CreateBooking", BookingRPC.CreateBooking),
		unaryMethod("ListServices", BookingRPC.ListServices),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coachbook/v1/booking.proto",
}

// BookingClient calls BookingRPC over a client connection.
type BookingClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingClient(cc grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{cc: cc}
}

func (c *BookingClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+bookingServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) GetAvailability(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetAvailability", in, opts...)
}

func (c *BookingClient) CreateBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateBooking", in, opts...)
}

func (c *BookingClient) ListServices(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListServices", in, opts...)
}

type bookingRPCServer struct {
	bookings domain.BookingService
	loc      *time.Location
}

func (s *bookingRPCServer) GetAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	q := availabilityQuery{Date: stringField(in, "date")}
	if err := validate.Struct(q); err != nil {
		return nil, status.Error(codes.InvalidArgument, formatValidationErrors(err))
	}
	date, _ := time.ParseInLocation(models.DateLayout, q.Date, s.loc)

	day, err := s.bookings.Availability(ctx, date)
	if err != nil {
		return nil, rpcError(ctx, err)
	}

	slots := make([]any, 0, len(day.Slots))
	for _, slot := range day.Slots {
		slots = append(slots, slot.String())
	}
	out := map[string]any{
		"date":  models.DateKey(day.Date),
		"slots": slots,
	}
	if day.PastDate {
		out["message"] = pastDateMessage
	}
	return newStruct(out)
}

func (s *bookingRPCServer) CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	serviceID, ok := intField(in, "service_id")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "service_id must be an integer")
	}
	body := bookingPayload{
		Date:        stringField(in, "date"),
		StartTime:   stringField(in, "start_time"),
		ServiceID:   serviceID,
		ClientEmail: stringField(in, "client_email"),
	}
	if err := validate.Struct(body); err != nil {
		return nil, status.Error(codes.InvalidArgument, formatValidationErrors(err))
	}

	booking, err := s.bookings.CreateBooking(ctx, body.toRequest(s.loc))
	if err != nil {
		return nil, rpcError(ctx, err)
	}

	return newStruct(map[string]any{
		"id":         booking.ID,
		"date":       models.DateKey(booking.Date),
		"start_time": booking.StartTime.String(),
		"end_time":   booking.EndTime.String(),
		"service": map[string]any{
			"id":               booking.Service.ID,
			"name":             booking.Service.Name,
			"duration_minutes": booking.Service.DurationMinutes,
		},
		"client_email": booking.ClientEmail,
	})
}

func (s *bookingRPCServer) ListServices(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	services, err := s.bookings.ListServices(ctx)
	if err != nil {
		return nil, rpcError(ctx, err)
	}

	list := make([]any, 0, len(services))
	for _, svc := range services {
		list = append(list, map[string]any{
			"id":               svc.ID,
			"name":             svc.Name,
			"duration_minutes": svc.DurationMinutes,
		})
	}
	return newStruct(map[string]any{"services": list})
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

// intField reads a whole number. A missing field reads as 0 so the validator reports it.
func intField(in *structpb.Struct, name string) (int64, bool) {
	v, found := in.GetFields()[name]
	if !found {
		return 0, true
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, false
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func rpcError(ctx context.Context, err error) error {
	if rej, ok := schedule.AsRejection(err); ok {
		code := codes.FailedPrecondition
		if rej.Reason == schedule.ReasonSlotConflict {
			code = codes.AlreadyExists
		}
		return status.Errorf(code, "%s: %s", rej.Reason, rej.Message)
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, service.ErrInvalidRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, database.ErrNotFound):
		return status.Error(codes.NotFound, "resource not found")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("rpc failed")
		return status.Error(codes.Internal, "internal error")
	}
}

type GRPCServer struct {
	server   *grpc.Server
	listener net.Listener
	log      zerolog.Logger
}

func NewGRPCServer(cfg config.APIConfig, bookings domain.BookingService, loc *time.Location, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return newGRPCServer(lis, cfg, bookings, loc, logger), nil
}

func newGRPCServer(lis net.Listener, cfg config.APIConfig, bookings domain.BookingService, loc *time.Location, logger *zerolog.Logger) *GRPCServer {
	if loc == nil {
		loc = time.Local
	}
	serverLogger := componentLogger(logger, "grpc")

	unary := ChainUnaryInterceptors(
		RecoveryUnaryInterceptor(&serverLogger),
		LoggingUnaryInterceptor(&serverLogger),
	)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(unary))
	grpcServer.RegisterService(&bookingServiceDesc, &bookingRPCServer{bookings: bookings, loc: loc})

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	return &GRPCServer{
		server:   grpcServer,
		listener: lis,
		log:      serverLogger,
	}
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	}
}
