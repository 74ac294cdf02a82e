package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/pkg/page"
	"github.com/l3aro/cfgview/pkg/view"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render <payload>",
	Short: "Write a static HTML page for a payload",
	Long: `Lays out the payload once and writes a self-contained HTML page with the
caption, the paired source/bytecode table and the SVG diagram.
The page has no client script; use "serve" for dragging and zooming.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Close()

		fn, err := loadPayload(args[0], logger)
		if err != nil {
			return err
		}

		opts := conf.ViewOptions()
		if cmd.Flags().Changed("width") {
			opts.Width, _ = cmd.Flags().GetFloat64("width")
		}
		if cmd.Flags().Changed("height") {
			opts.Height, _ = cmd.Flags().GetFloat64("height")
		}
		if opts.Width <= 0 || opts.Height <= 0 {
			return fmt.Errorf("width and height must be positive")
		}

		v, err := view.Build(fn, opts, logger)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if err := writeOutput(out, func(w io.Writer) error {
			return page.Write(w, v, page.Options{})
		}); err != nil {
			return err
		}
		if out != "" && out != "-" {
			logger.Info("page written", "path", out, "function", fn.Name)
		}
		return nil
	},
}

// writeOutput runs write against the named file, or stdout for "" and "-".
// A failed close is reported like a failed write.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	renderCmd.Flags().Float64("width", 0, "Diagram width in pixels (default: viewport.width)")
	renderCmd.Flags().Float64("height", 0, "Diagram height in pixels (default: viewport.height)")
	RootCmd.AddCommand(renderCmd)
}
