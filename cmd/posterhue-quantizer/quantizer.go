package main

import (
	"context"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/version"
	"github.com/jmylchreest/posterhue/pkg/plugin"
)

// builtinQuantizer exposes a colour.Quantizer through the plugin API.
type builtinQuantizer struct {
	alg   colour.Algorithm
	impl  colour.Quantizer
	stdio bool
}

func newBuiltinQuantizer(alg colour.Algorithm, stdio bool) (*builtinQuantizer, error) {
	impl, err := colour.NewQuantizer(alg)
	if err != nil {
		return nil, err
	}
	return &builtinQuantizer{alg: alg, impl: impl, stdio: stdio}, nil
}

// Quantize decodes the request bitmap and returns raw swatches. Filters and
// targets are left to the host.
func (q *builtinQuantizer) Quantize(ctx context.Context, req plugin.QuantizeRequest) ([]plugin.SwatchData, error) {
	img, err := req.Image()
	if err != nil {
		return nil, err
	}

	palette, err := q.impl.Quantize(ctx, img, colour.Options{
		MaxColors:  req.MaxColors,
		ResizeArea: req.ResizeArea,
	})
	if err != nil {
		return nil, err
	}

	swatches := palette.Swatches()
	out := make([]plugin.SwatchData, len(swatches))
	for i, s := range swatches {
		out[i] = plugin.SwatchData{R: s.RGB.R, G: s.RGB.G, B: s.RGB.B, Population: s.Population}
	}
	return out, nil
}

// GetMetadata describes the plugin.
func (q *builtinQuantizer) GetMetadata() plugin.PluginInfo {
	protocol := plugin.PluginTypeGoPlugin
	if q.stdio {
		protocol = plugin.PluginTypeJSON
	}
	return plugin.PluginInfo{
		Name:            "posterhue-quantizer",
		Version:         version.Short(),
		ProtocolVersion: plugin.ProtocolVersion,
		Description:     "Built-in " + string(q.alg) + " quantizer",
		PluginProtocol:  string(protocol),
	}
}
