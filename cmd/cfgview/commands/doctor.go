package commands

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor <payload>",
	Short: "Check a payload against the current configuration",
	Long: `Checks the payload's id references, line ownership, reachability and
source range, and verifies that a view can be laid out with the current
configuration. Exits with an error when any check fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, configPath, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fn, err := loadPayload(args[0], conf.NewLogger())
		if err != nil {
			return err
		}

		result, err := healthcheck.Check(conf, configPath, fn)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if result.Failed() {
			return fmt.Errorf("health check failed: one or more checks errored")
		}
		return nil
	},
}

func displayDoctorResult(result *healthcheck.HealthCheckResult) {
	if result.ConfigPath == "" {
		fmt.Println("Using config: defaults")
	} else {
		fmt.Printf("Using config: %s (%s)\n", result.ConfigPath, result.ConfigScope)
	}
	fmt.Printf("Payload: %s\n\n", result.Function)

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Check", "Status", "Detail"})
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, c := range result.Checks {
		tw.Append([]string{c.Name, formatStatusIcon(c.Status) + " " + c.Status, c.Detail})
	}
	tw.Render()
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusOK:
		return "✓"
	case healthcheck.StatusWarn:
		return "!"
	case healthcheck.StatusSkip:
		return "-"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
