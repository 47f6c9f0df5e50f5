package plugin

import (
	"context"
)

// Quantizer is the interface that quantizer plugins must implement for go-plugin RPC.
type Quantizer interface {
	// Quantize reduces the request's bitmap to at most MaxColors swatches.
	Quantize(ctx context.Context, req QuantizeRequest) ([]SwatchData, error)

	// GetMetadata returns plugin metadata.
	GetMetadata() PluginInfo
}
