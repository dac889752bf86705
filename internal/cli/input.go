package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
)

// inputFlags selects the snapshot a command reads.
type inputFlags struct {
	path   string
	format string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "input", "i", "-", `league snapshot file ("-" for stdin)`)
	cmd.Flags().StringVar(&f.format, "format", "", "snapshot format: json or yaml (default: from file extension)")
}

// read loads and decodes the snapshot.
func (f *inputFlags) read(cmd *cobra.Command) (application.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if f.path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(f.path)
	}
	if err != nil {
		return application.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	format, err := f.resolveFormat()
	if err != nil {
		return application.Snapshot{}, err
	}

	snap, err := application.DecodeSnapshot(data, format)
	if err != nil {
		return application.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (f *inputFlags) resolveFormat() (application.Format, error) {
	switch application.Format(f.format) {
	case application.FormatJSON, application.FormatYAML:
		return application.Format(f.format), nil
	case "":
		if f.path == "-" {
			return application.FormatJSON, nil
		}
		return application.FormatFromPath(f.path), nil
	default:
		return "", fmt.Errorf("unsupported snapshot format %q", f.format)
	}
}
