package grpc

// proto.go hand-writes the service descriptor for dokani.risk.v1.RiskAssessmentService.
// Messages are plain Go structs carried by the JSON codec in codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dokani.risk.v1.RiskAssessmentService"

// RiskAssessmentServiceServer is the server API for RiskAssessmentService.
type RiskAssessmentServiceServer interface {
	CalculateRisk(context.Context, *CalculateRiskRequest) (*CalculateRiskResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error)
	mustEmbedUnimplementedRiskAssessmentServiceServer()
}

// UnimplementedRiskAssessmentServiceServer provides forward-compatible default implementations.
type UnimplementedRiskAssessmentServiceServer struct{}

func (UnimplementedRiskAssessmentServiceServer) CalculateRisk(context.Context, *CalculateRiskRequest) (*CalculateRiskResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CalculateRisk not implemented")
}
func (UnimplementedRiskAssessmentServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedRiskAssessmentServiceServer) GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedRiskAssessmentServiceServer) mustEmbedUnimplementedRiskAssessmentServiceServer() {}

// RegisterRiskAssessmentServiceServer registers srv with the gRPC server.
func RegisterRiskAssessmentServiceServer(s grpclib.ServiceRegistrar, srv RiskAssessmentServiceServer) {
	s.RegisterService(&riskAssessmentServiceDesc, srv)
}

var riskAssessmentServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskAssessmentServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "CalculateRisk", Handler: calculateRiskHandler},
		{MethodName: "UpdateProfile", Handler: updateProfileHandler},
		{MethodName: "GetProfile", Handler: getProfileHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func calculateRiskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(CalculateRiskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskAssessmentServiceServer).CalculateRisk(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CalculateRisk"}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskAssessmentServiceServer).CalculateRisk(ctx, req.(*CalculateRiskRequest))
	})
}

func updateProfileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(UpdateProfileRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskAssessmentServiceServer).UpdateProfile(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/UpdateProfile"}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskAssessmentServiceServer).UpdateProfile(ctx, req.(*UpdateProfileRequest))
	})
}

func getProfileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetProfileRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskAssessmentServiceServer).GetProfile(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetProfile"}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(RiskAssessmentServiceServer).GetProfile(ctx, req.(*GetProfileRequest))
	})
}
