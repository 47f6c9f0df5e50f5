package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// QuantizerRPC implements the go-plugin Plugin interface for quantizer plugins.
type QuantizerRPC struct {
	plugin.Plugin
	Impl Quantizer
}

// Server returns an RPC server for this plugin.
func (p *QuantizerRPC) Server(*plugin.MuxBroker) (any, error) {
	return &QuantizerRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *QuantizerRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &QuantizerRPCClient{client: c}, nil
}

// QuantizerRPCServer is the RPC server implementation for quantizer plugins.
type QuantizerRPCServer struct {
	Impl Quantizer
}

// Quantize implements the RPC method for quantization.
func (s *QuantizerRPCServer) Quantize(req QuantizeRequest, resp *[]SwatchData) error {
	swatches, err := s.Impl.Quantize(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = swatches
	return nil
}

// GetMetadata implements the RPC method for fetching plugin metadata.
func (s *QuantizerRPCServer) GetMetadata(_ any, resp *PluginInfo) error {
	*resp = s.Impl.GetMetadata()
	return nil
}

// QuantizerRPCClient is the RPC client implementation for quantizer plugins.
type QuantizerRPCClient struct {
	client *rpc.Client
}

// Quantize calls the remote Quantize method. net/rpc calls cannot be
// cancelled, so ctx is only checked before and after the call.
func (c *QuantizerRPCClient) Quantize(ctx context.Context, req QuantizeRequest) ([]SwatchData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := c.client.Go("Plugin.Quantize", req, new([]SwatchData), nil)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.Done:
	}
	if call.Error != nil {
		return nil, &RPCError{Message: call.Error.Error()}
	}
	return *call.Reply.(*[]SwatchData), nil
}

// GetMetadata calls the remote GetMetadata method.
func (c *QuantizerRPCClient) GetMetadata() PluginInfo {
	var info PluginInfo
	if err := c.client.Call("Plugin.GetMetadata", new(any), &info); err != nil {
		return PluginInfo{}
	}
	return info
}

// RPCError represents an error returned from an RPC call.
type RPCError struct {
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// PluginMap returns the plugin set a host or plugin registers.
func PluginMap(impl Quantizer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		QuantizerPluginName: &QuantizerRPC{Impl: impl},
	}
}

// Serve runs impl as a go-plugin quantizer. It blocks until the host
// disconnects.
func Serve(impl Quantizer) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
	})
}
