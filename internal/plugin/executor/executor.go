// Package executor runs external quantizer plugins over either go-plugin
// RPC or JSON on stdin/stdout, and exposes them as a colour.Quantizer.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/posterhue/internal/colour"
	"github.com/jmylchreest/posterhue/internal/plugin/protocol"
	"github.com/jmylchreest/posterhue/pkg/plugin"
)

// Config configures a PluginExecutor.
type Config struct {
	// Path is the plugin binary.
	Path string

	// Runner starts json-stdio plugins and the --plugin-info query.
	// Nil uses RealProcessRunner.
	Runner ProcessRunner

	// Logger receives executor and go-plugin logs. Nil discards them.
	Logger hclog.Logger
}

// PluginExecutor talks to a quantizer plugin using whichever protocol it
// advertises.
type PluginExecutor struct {
	path         string
	protocolType plugin.PluginType
	info         plugin.PluginInfo
	runner       ProcessRunner
	logger       hclog.Logger

	mu        sync.Mutex
	client    *goplugin.Client
	rpcClient plugin.Quantizer
}

var _ colour.Quantizer = (*PluginExecutor)(nil)

// New creates a PluginExecutor by querying the plugin's --plugin-info.
func New(ctx context.Context, cfg Config) (*PluginExecutor, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("plugin path cannot be empty")
	}
	if cfg.Runner == nil {
		cfg.Runner = NewRealProcessRunner()
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	detectCtx, cancel := context.WithTimeout(ctx, protocol.DetectTimeout)
	defer cancel()

	stdout, stderr, err := cfg.Runner.Run(detectCtx, cfg.Path, []string{"--plugin-info"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin %s: %w%s", cfg.Path, err, stderrSuffix(stderr))
	}

	result, err := protocol.ParseInfo(stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to detect plugin protocol: %w", err)
	}

	logger := cfg.Logger.Named("plugin").With("path", cfg.Path)
	logger.Debug("detected plugin",
		"name", result.PluginInfo.Name,
		"version", result.PluginInfo.Version,
		"protocol", result.Type)

	return &PluginExecutor{
		path:         cfg.Path,
		protocolType: result.Type,
		info:         result.PluginInfo,
		runner:       cfg.Runner,
		logger:       logger,
	}, nil
}

// Info returns the metadata the plugin reported.
func (e *PluginExecutor) Info() plugin.PluginInfo {
	return e.info
}

// Protocol returns the protocol used to talk to the plugin.
func (e *PluginExecutor) Protocol() plugin.PluginType {
	return e.protocolType
}

// Quantize sends the image to the plugin and builds a palette from the
// swatches it returns. Filters and targets are applied on this side.
func (e *PluginExecutor) Quantize(ctx context.Context, img image.Image, opts colour.Options) (*colour.Palette, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("no pixels found in image")
	}

	req := plugin.NewQuantizeRequest(img, opts.MaxColors, opts.ResizeArea)

	var (
		data []plugin.SwatchData
		err  error
	)
	switch e.protocolType {
	case plugin.PluginTypeGoPlugin:
		data, err = e.quantizeGoPlugin(ctx, req)
	case plugin.PluginTypeJSON:
		data, err = e.quantizeJSON(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", e.protocolType)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("plugin quantized image", "swatches", len(data))
	return buildPalette(data, opts), nil
}

// Close stops a running go-plugin process.
func (e *PluginExecutor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		e.client.Kill()
		e.client = nil
		e.rpcClient = nil
	}
}

// buildPalette turns plugin swatches into a palette, dropping filtered and
// empty entries.
func buildPalette(data []plugin.SwatchData, opts colour.Options) *colour.Palette {
	swatches := make([]colour.Swatch, 0, len(data))
	for _, d := range data {
		if d.Population <= 0 {
			continue
		}
		rgb := colour.RGB{R: d.R, G: d.G, B: d.B}
		if !colour.Allowed(opts.Filters, rgb) {
			continue
		}
		swatches = append(swatches, colour.NewSwatch(colour.RGBToColor(rgb), d.Population))
	}
	// Plugins may answer in any order; the cap keeps the most populous.
	slices.SortStableFunc(swatches, func(a, b colour.Swatch) int {
		return b.Population - a.Population
	})
	if len(swatches) > opts.MaxColors {
		swatches = swatches[:opts.MaxColors]
	}
	return colour.NewPalette(swatches, opts.Targets)
}

// --- Go-Plugin RPC implementation ---

func (e *PluginExecutor) getRPCClient() (plugin.Quantizer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rpcClient != nil {
		return e.rpcClient, nil
	}

	// Started lazily so executors that are never used do not spawn a process.
	e.client = goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  plugin.Handshake,
		Plugins:          plugin.PluginMap(nil),
		Cmd:              exec.Command(e.path), // #nosec G204 - plugin path is user configured
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           e.logger,
	})

	rpcClient, err := e.client.Client()
	if err != nil {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense(plugin.QuantizerPluginName)
	if err != nil {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	client, ok := raw.(plugin.Quantizer)
	if !ok {
		e.client.Kill()
		e.client = nil
		return nil, fmt.Errorf("plugin dispensed unexpected type %T", raw)
	}
	e.rpcClient = client
	return client, nil
}

func (e *PluginExecutor) quantizeGoPlugin(ctx context.Context, req plugin.QuantizeRequest) ([]plugin.SwatchData, error) {
	client, err := e.getRPCClient()
	if err != nil {
		return nil, err
	}

	data, err := client.Quantize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", e.info.Name, err)
	}
	return data, nil
}

// --- JSON-stdio implementation ---

func (e *PluginExecutor) quantizeJSON(ctx context.Context, req plugin.QuantizeRequest) ([]plugin.SwatchData, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	stdout, stderr, err := e.runner.Run(ctx, e.path, nil, bytes.NewReader(payload))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("plugin execution failed: %w%s", err, stderrSuffix(stderr))
	}

	var data []plugin.SwatchData
	if err := json.Unmarshal(stdout, &data); err != nil {
		return nil, fmt.Errorf("failed to parse plugin output: %w", err)
	}
	return data, nil
}

func stderrSuffix(stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return ""
	}
	return "\nStderr: " + msg
}
