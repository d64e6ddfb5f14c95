// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package bundlerpb

import (
	"context"

	"google.golang.org/grpc"
)

// FleetControlServer is the server-side contract a bundler implements
// to expose its debug_bundler_* operations to a fleet controller over
// gRPC instead of (or alongside) its own JSON-RPC listener.
type FleetControlServer interface {
	ClearState(context.Context, *ClearStateRequest) (*ClearStateResponse, error)
	DumpMempool(context.Context, *DumpMempoolRequest) (*DumpMempoolResponse, error)
	SetReputation(context.Context, *SetReputationRequest) (*SetReputationResponse, error)
	SetWhitelist(context.Context, *SetWhitelistRequest) (*SetWhitelistResponse, error)
	SetBlacklist(context.Context, *SetBlacklistRequest) (*SetBlacklistResponse, error)
	DumpReputation(context.Context, *DumpReputationRequest) (*DumpReputationResponse, error)
	SetBundlingMode(context.Context, *SetBundlingModeRequest) (*SetBundlingModeResponse, error)
	SendBundleNow(context.Context, *SendBundleNowRequest) (*SendBundleNowResponse, error)
}

// RegisterFleetControlServer registers srv's implementation on s.
func RegisterFleetControlServer(s *grpc.Server, srv FleetControlServer) {
	s.RegisterService(&fleetControlServiceDesc, srv)
}

func fleetControlClearStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClearStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).ClearState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/ClearState"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).ClearState(ctx, req.(*ClearStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlDumpMempoolHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DumpMempoolRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).DumpMempool(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/DumpMempool"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).DumpMempool(ctx, req.(*DumpMempoolRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlSetReputationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetReputationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).SetReputation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/SetReputation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).SetReputation(ctx, req.(*SetReputationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlSetWhitelistHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetWhitelistRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).SetWhitelist(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/SetWhitelist"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).SetWhitelist(ctx, req.(*SetWhitelistRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlSetBlacklistHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetBlacklistRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).SetBlacklist(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/SetBlacklist"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).SetBlacklist(ctx, req.(*SetBlacklistRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlDumpReputationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DumpReputationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).DumpReputation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/DumpReputation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).DumpReputation(ctx, req.(*DumpReputationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlSetBundlingModeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetBundlingModeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).SetBundlingMode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/SetBundlingMode"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).SetBundlingMode(ctx, req.(*SetBundlingModeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fleetControlSendBundleNowHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendBundleNowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FleetControlServer).SendBundleNow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/bundlerpb.FleetControl/SendBundleNow"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FleetControlServer).SendBundleNow(ctx, req.(*SendBundleNowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var fleetControlServiceDesc = grpc.ServiceDesc{
	ServiceName: "bundlerpb.FleetControl",
	HandlerType: (*FleetControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ClearState", Handler: fleetControlClearStateHandler},
		{MethodName: "DumpMempool", Handler: fleetControlDumpMempoolHandler},
		{MethodName: "SetReputation", Handler: fleetControlSetReputationHandler},
		{MethodName: "SetWhitelist", Handler: fleetControlSetWhitelistHandler},
		{MethodName: "SetBlacklist", Handler: fleetControlSetBlacklistHandler},
		{MethodName: "DumpReputation", Handler: fleetControlDumpReputationHandler},
		{MethodName: "SetBundlingMode", Handler: fleetControlSetBundlingModeHandler},
		{MethodName: "SendBundleNow", Handler: fleetControlSendBundleNowHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bundlerpb/fleet_control.proto",
}

// FleetControlClient is the client-side contract for dialing a remote
// bundler's fleet-control surface.
type FleetControlClient interface {
	ClearState(ctx context.Context, in *ClearStateRequest, opts ...grpc.CallOption) (*ClearStateResponse, error)
	DumpMempool(ctx context.Context, in *DumpMempoolRequest, opts ...grpc.CallOption) (*DumpMempoolResponse, error)
	SetReputation(ctx context.Context, in *SetReputationRequest, opts ...grpc.CallOption) (*SetReputationResponse, error)
	SetWhitelist(ctx context.Context, in *SetWhitelistRequest, opts ...grpc.CallOption) (*SetWhitelistResponse, error)
	SetBlacklist(ctx context.Context, in *SetBlacklistRequest, opts ...grpc.CallOption) (*SetBlacklistResponse, error)
	DumpReputation(ctx context.Context, in *DumpReputationRequest, opts ...grpc.CallOption) (*DumpReputationResponse, error)
	SetBundlingMode(ctx context.Context, in *SetBundlingModeRequest, opts ...grpc.CallOption) (*SetBundlingModeResponse, error)
	SendBundleNow(ctx context.Context, in *SendBundleNowRequest, opts ...grpc.CallOption) (*SendBundleNowResponse, error)
}

type fleetControlClient struct {
	cc grpc.ClientConnInterface
}

// NewFleetControlClient wraps cc (e.g. from grpc.NewClient) as a
// FleetControlClient, always negotiating this package's json codec.
func NewFleetControlClient(cc grpc.ClientConnInterface) FleetControlClient {
	return &fleetControlClient{cc: cc}
}

func (c *fleetControlClient) call(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *fleetControlClient) ClearState(ctx context.Context, in *ClearStateRequest, opts ...grpc.CallOption) (*ClearStateResponse, error) {
	out := new(ClearStateResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/ClearState", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) DumpMempool(ctx context.Context, in *DumpMempoolRequest, opts ...grpc.CallOption) (*DumpMempoolResponse, error) {
	out := new(DumpMempoolResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/DumpMempool", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) SetReputation(ctx context.Context, in *SetReputationRequest, opts ...grpc.CallOption) (*SetReputationResponse, error) {
	out := new(SetReputationResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/SetReputation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) SetWhitelist(ctx context.Context, in *SetWhitelistRequest, opts ...grpc.CallOption) (*SetWhitelistResponse, error) {
	out := new(SetWhitelistResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/SetWhitelist", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) SetBlacklist(ctx context.Context, in *SetBlacklistRequest, opts ...grpc.CallOption) (*SetBlacklistResponse, error) {
	out := new(SetBlacklistResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/SetBlacklist", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) DumpReputation(ctx context.Context, in *DumpReputationRequest, opts ...grpc.CallOption) (*DumpReputationResponse, error) {
	out := new(DumpReputationResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/DumpReputation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) SetBundlingMode(ctx context.Context, in *SetBundlingModeRequest, opts ...grpc.CallOption) (*SetBundlingModeResponse, error) {
	out := new(SetBundlingModeResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/SetBundlingMode", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fleetControlClient) SendBundleNow(ctx context.Context, in *SendBundleNowRequest, opts ...grpc.CallOption) (*SendBundleNowResponse, error) {
	out := new(SendBundleNowResponse)
	if err := c.call(ctx, "/bundlerpb.FleetControl/SendBundleNow", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
