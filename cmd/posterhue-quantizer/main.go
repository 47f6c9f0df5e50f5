// posterhue-quantizer - out-of-process quantizer plugin for posterhue
//
// Runs the built-in median cut or k-means quantizer behind the plugin
// protocol so it can be swapped in through quantizer_plugin, and serves as a
// template for third-party quantizers.
//
// Build:
//   go build -o posterhue-quantizer ./cmd/posterhue-quantizer
//
// Usage:
//   posterhue --quantizer-plugin ./posterhue-quantizer theme backdrop.jpg
//
// Environment:
//   POSTERHUE_QUANTIZER_ALGORITHM  mediancut (default) or kmeans
//   POSTERHUE_QUANTIZER_STDIO      when set, speak json-stdio instead of go-plugin
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/pkg/plugin"
)

func main() {
	alg := colour.Algorithm(os.Getenv("POSTERHUE_QUANTIZER_ALGORITHM"))
	if alg == "" {
		alg = colour.AlgorithmMedianCut
	}
	_, stdio := os.LookupEnv("POSTERHUE_QUANTIZER_STDIO")

	q, err := newBuiltinQuantizer(alg, stdio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "--plugin-info" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(q.GetMetadata()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding plugin info: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if stdio {
		if err := serveStdio(context.Background(), q, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	plugin.Serve(q)
}

// serveStdio answers a single json-stdio request.
func serveStdio(ctx context.Context, q plugin.Quantizer, r io.Reader, w io.Writer) error {
	var req plugin.QuantizeRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}

	swatches, err := q.Quantize(ctx, req)
	if err != nil {
		return err
	}

	return json.NewEncoder(w).Encode(swatches)
}
