package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/colormap"
	"github.com/l3aro/cfgview/pkg/table"
)

// tableCmd represents the table command
var tableCmd = &cobra.Command{
	Use:   "table <payload>",
	Short: "Print the source/bytecode table on the terminal",
	Long: `Prints one row per source line with the owning block and its instructions.
Block ids are colored with the block's color when stdout is a terminal.`,
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
		if err := fn.Validate(); err != nil {
			return err
		}
		idx, err := blockindex.Build(fn.Nodes, blockindex.WithStrictLines(conf.StrictLines))
		if err != nil {
			return err
		}

		colors := colormap.Rainbow(idx.Len() + 1)
		t := table.Build(fn.SourceCodeLines, fn.FirstLine, idx, colors, table.WithNeutralColor(conf.Table.NeutralColor))

		color := log.IsTTY()
		if cmd.Flags().Changed("color") {
			color, _ = cmd.Flags().GetBool("color")
		}
		var out io.Writer = os.Stdout
		if color {
			out = colorable.NewColorableStdout()
		}
		fmt.Fprintln(out, fn.Caption())
		table.WriteText(out, t, color)
		return nil
	},
}

func init() {
	tableCmd.Flags().Bool("color", false, "Color block ids (default: when stdout is a terminal)")
	RootCmd.AddCommand(tableCmd)
}
