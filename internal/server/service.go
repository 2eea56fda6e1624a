package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/window"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "whisperbridge.v1.WindowedTranscription"

type InitializeRequest struct {
	ModelPath string `json:"model_path"`
	Language  string `json:"language,omitempty"`
	Translate bool   `json:"translate,omitempty"`
	Threads   int    `json:"threads,omitempty"`
}

type InitializeResponse struct {
	Handle uint64 `json:"handle"`
	Engine string `json:"engine"`
}

type ProcessRequest struct {
	Handle          uint64   `json:"handle"`
	AudioPath       string   `json:"audio_path"`
	OffsetMs        int64    `json:"offset_ms"`
	WindowMs        int64    `json:"window_ms"`
	TotalDurationMs int64    `json:"total_duration_ms"`
	Context         []string `json:"context"`
}

// ProcessResponse is the field-exact window record.
type ProcessResponse = window.Result

type ReleaseRequest struct {
	Handle uint64 `json:"handle"`
}

type ReleaseResponse struct{}

// WindowedTranscriptionServer is the server API for the bridge service.
type WindowedTranscriptionServer interface {
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	Process(context.Context, *ProcessRequest) (*ProcessResponse, error)
	Release(context.Context, *ReleaseRequest) (*ReleaseResponse, error)
}

// ServiceDesc describes the bridge service for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WindowedTranscriptionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initialize", Handler: initializeHandler},
		{MethodName: "Process", Handler: processHandler},
		{MethodName: "Release", Handler: releaseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "whisperbridge/v1/bridge.json",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv WindowedTranscriptionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func initializeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InitializeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WindowedTranscriptionServer).Initialize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Initialize")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WindowedTranscriptionServer).Initialize(ctx, req.(*InitializeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProcessRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WindowedTranscriptionServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Process")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WindowedTranscriptionServer).Process(ctx, req.(*ProcessRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func releaseHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReleaseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WindowedTranscriptionServer).Release(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Release")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WindowedTranscriptionServer).Release(ctx, req.(*ReleaseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the bridge service using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*InitializeResponse, error) {
	out := new(InitializeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Initialize"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Process(ctx context.Context, in *ProcessRequest, opts ...grpc.CallOption) (*ProcessResponse, error) {
	out := new(ProcessResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Process"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*ReleaseResponse, error) {
	out := new(ReleaseResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Release"), in, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
