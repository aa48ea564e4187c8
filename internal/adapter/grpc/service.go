package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified name of the debt service
const ServiceName = "debtflow.v1.DebtFlowService"

// DebtFlowServiceServer is the server API for the debtflow.v1.DebtFlowService service.
// Requests and responses are google.protobuf.Struct messages.
type DebtFlowServiceServer interface {
	GetFacilityBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFacilityBalances(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetObligationBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RepayFacility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RepayObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CorrectFacility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CorrectObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecommendRepayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecommendPurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCreditAnalytics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportCreditAnalytics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonthlySummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSpendingByCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateFacility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFacilities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFacility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteFacility(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LinkObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteObligation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListObligations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEntries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(DebtFlowServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var serviceMethods = []struct {
	name string
	call unaryMethod
}{
	{"GetFacilityBalance", DebtFlowServiceServer.GetFacilityBalance},
	{"ListFacilityBalances", DebtFlowServiceServer.ListFacilityBalances},
	{"GetObligationBalance", DebtFlowServiceServer.GetObligationBalance},
	{"RepayFacility", DebtFlowServiceServer.RepayFacility},
	{"RepayObligation", DebtFlowServiceServer.RepayObligation},
	{"CorrectFacility", DebtFlowServiceServer.CorrectFacility},
	{"CorrectObligation", DebtFlowServiceServer.CorrectObligation},
	{"RecommendRepayment", DebtFlowServiceServer.RecommendRepayment},
	{"RecommendPurchase", DebtFlowServiceServer.RecommendPurchase},
	{"GetCreditAnalytics", DebtFlowServiceServer.GetCreditAnalytics},
	{"ExportCreditAnalytics", DebtFlowServiceServer.ExportCreditAnalytics},
	{"GetMonthlySummary", DebtFlowServiceServer.GetMonthlySummary},
	{"GetSpendingByCategory", DebtFlowServiceServer.GetSpendingByCategory},
	{"CreateFacility", DebtFlowServiceServer.CreateFacility},
	{"ListFacilities", DebtFlowServiceServer.ListFacilities},
	{"GetFacility", DebtFlowServiceServer.GetFacility},
	{"DeleteFacility", DebtFlowServiceServer.DeleteFacility},
	{"CreateObligation", DebtFlowServiceServer.CreateObligation},
	{"LinkObligation", DebtFlowServiceServer.LinkObligation},
	{"DeleteObligation", DebtFlowServiceServer.DeleteObligation},
	{"ListObligations", DebtFlowServiceServer.ListObligations},
	{"RecordEntry", DebtFlowServiceServer.RecordEntry},
	{"GetEntry", DebtFlowServiceServer.GetEntry},
	{"ListEntries", DebtFlowServiceServer.ListEntries},
	{"DeleteEntry", DebtFlowServiceServer.DeleteEntry},
}

// serviceDesc describes the service for grpc.Server.RegisterService
var serviceDesc = newServiceDesc()

func newServiceDesc() grpc.ServiceDesc {
	methods := make([]grpc.MethodDesc, 0, len(serviceMethods))
	for _, m := range serviceMethods {
		methods = append(methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unaryHandler(m.name, m.call),
		})
	}
	return grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*DebtFlowServiceServer)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "debtflow/v1/debtflow.proto",
	}
}

// unaryHandler adapts one service method to the grpc.MethodDesc handler shape
func unaryHandler(name string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DebtFlowServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(DebtFlowServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterDebtFlowServiceServer registers the service implementation with a gRPC server
func RegisterDebtFlowServiceServer(s grpc.ServiceRegistrar, srv DebtFlowServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client invokes DebtFlowService methods by name
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields
func (c *Client) Call(ctx context.Context, method string, fields map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
