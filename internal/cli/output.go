package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/posterhue/internal/colour"
)

// Preview modes for ANSI colour blocks.
const (
	previewAuto   = "auto"
	previewAlways = "always"
	previewNever  = "never"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// usePreview resolves a preview mode against the output writer. Colour
// previews are never written to files.
func usePreview(mode string, w io.Writer, toFile bool) (bool, error) {
	switch mode {
	case previewAlways:
		return !toFile, nil
	case previewNever:
		return false, nil
	case previewAuto, "":
		return !toFile && isTerminal(w) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid preview mode: %s (valid: auto, always, never)", mode)
	}
}

// encode renders v as indented JSON or YAML.
func encode(v any, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert to YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", format)
	}
}

// writeOutput writes output to path, or to the command's stdout when path
// is empty.
func writeOutput(cmd *cobra.Command, path, output string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), output)
		return err
	}

	logger.Debug("writing output", "path", path)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil { // #nosec G306 - output files are user facing
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// withPreview toggles ANSI output for the duration of fn.
func withPreview(enabled bool, fn func() (string, error)) (string, error) {
	prev := colour.DisableColourOutput
	colour.DisableColourOutput = !enabled
	defer func() { colour.DisableColourOutput = prev }()
	return fn()
}
