package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/plugin/protocol"
)

var pluginOpts struct {
	format string
}

// pluginCmd groups quantizer plugin commands.
var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Inspect external quantizer plugins",
	Long: `Inspect external quantizer plugins.

A quantizer plugin is any executable that prints its metadata as JSON when
run with --plugin-info and then speaks either go-plugin RPC or json-stdio.
Use one with --quantizer-plugin or the quantizer_plugin config key.`,
}

// pluginInfoCmd represents the plugin info command.
var pluginInfoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show plugin metadata and protocol compatibility",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginInfo,
}

func init() {
	rootCmd.AddCommand(pluginCmd)
	pluginCmd.AddCommand(pluginInfoCmd)

	pluginInfoCmd.Flags().StringVarP(&pluginOpts.format, "format", "f", "text", "output format (text, json, yaml)")
}

func runPluginInfo(cmd *cobra.Command, args []string) error {
	result, err := protocol.DetectProtocol(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var output string
	switch pluginOpts.format {
	case "text", "":
		info := result.PluginInfo
		protocolVersion := info.ProtocolVersion
		if protocolVersion == "" {
			protocolVersion = "unspecified"
		}

		table := NewTable([]string{"Field", "Value"})
		table.AddRow([]string{"Name", info.Name})
		table.AddRow([]string{"Version", info.Version})
		table.AddRow([]string{"Description", info.Description})
		table.AddRow([]string{"Protocol", string(result.Type)})
		table.AddRow([]string{"Protocol version", protocolVersion})
		table.AddRow([]string{"Host protocol version", protocol.GetCurrentVersion().String()})
		output = table.Render()
	case "json", "yaml":
		output, err = encode(result.PluginInfo, pluginOpts.format)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", pluginOpts.format)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}
