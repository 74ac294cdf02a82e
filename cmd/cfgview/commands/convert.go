package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/pkg/cfg"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a payload between JSON and msgpack",
	Long: `Reads a payload and writes it in the format named by the output extension
(.msgpack, .mpk or .msgp for msgpack, JSON otherwise). A missing
dist_to_nodes is computed on the way.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Close()

		fn, err := loadPayload(args[0], logger)
		if err != nil {
			return err
		}
		if err := fn.Validate(); err != nil {
			return err
		}

		format := cfg.FormatForPath(args[1])
		if f, _ := cmd.Flags().GetString("format"); f != "" {
			format = cfg.Format(f)
		}

		if err := writeOutput(args[1], func(w io.Writer) error {
			return cfg.Encode(w, fn, format)
		}); err != nil {
			return err
		}
		logger.Info("payload converted", "from", args[0], "to", args[1], "format", string(format))
		return nil
	},
}

func init() {
	convertCmd.Flags().String("format", "", "Output format: json or msgpack (default: from extension)")
	RootCmd.AddCommand(convertCmd)
}
