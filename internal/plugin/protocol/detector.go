package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/jmylchreest/posterhue/internal/security"
	"github.com/jmylchreest/posterhue/pkg/plugin"
)

// DetectTimeout bounds the --plugin-info query.
const DetectTimeout = 5 * time.Second

// DetectorResult contains information about a detected plugin protocol.
type DetectorResult struct {
	// Type indicates which protocol the plugin uses.
	Type plugin.PluginType

	// PluginInfo contains metadata from --plugin-info.
	PluginInfo plugin.PluginInfo
}

// SupportsGoPlugin reports whether the plugin speaks go-plugin RPC.
func (r *DetectorResult) SupportsGoPlugin() bool {
	return r.Type == plugin.PluginTypeGoPlugin
}

// DetectProtocol queries the plugin binary with --plugin-info and decides
// which protocol to talk to it with.
func DetectProtocol(ctx context.Context, pluginPath string) (*DetectorResult, error) {
	if err := security.ValidatePluginPath(pluginPath); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DetectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, pluginPath, "--plugin-info") // #nosec G204 - plugin path is user configured
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query plugin: %w", err)
	}

	return ParseInfo(output)
}

// ParseInfo decodes --plugin-info output and checks protocol compatibility.
func ParseInfo(data []byte) (*DetectorResult, error) {
	var info plugin.PluginInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse plugin info: %w", err)
	}

	if info.ProtocolVersion != "" {
		if ok, err := IsCompatible(info.ProtocolVersion); !ok {
			return nil, fmt.Errorf("plugin %s: %w", info.Name, err)
		}
	}

	result := &DetectorResult{PluginInfo: info}

	switch plugin.PluginType(info.PluginProtocol) {
	case plugin.PluginTypeGoPlugin:
		result.Type = plugin.PluginTypeGoPlugin
	case plugin.PluginTypeJSON, "":
		// Empty defaults to json-stdio.
		result.Type = plugin.PluginTypeJSON
	default:
		return nil, fmt.Errorf("unknown plugin_protocol: %s", info.PluginProtocol)
	}

	return result, nil
}
