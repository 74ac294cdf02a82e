package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/cfgview/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cfgview configuration interactively",
	Long: `Guides you through setting up cfgview configuration step by step.
Creates a config file with the default diagram size, table and server settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		global, _ := cmd.Flags().GetBool("global")
		return runInit(cmd.Flags().Changed("global"), global)
	},
}

func runInit(locationChosen, global bool) error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Diagram ===
	width := strconv.FormatFloat(cfg.Viewport.Width, 'f', -1, 64)
	height := strconv.FormatFloat(cfg.Viewport.Height, 'f', -1, 64)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Diagram width").
				Description("Used for static pages and the terminal; live pages use the browser size").
				Placeholder(width).
				Validate(positiveNumber).
				Value(&width),
			huh.NewInput().
				Title("Diagram height").
				Placeholder(height).
				Validate(positiveNumber).
				Value(&height),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Viewport.Width, _ = strconv.ParseFloat(width, 64)
	cfg.Viewport.Height, _ = strconv.ParseFloat(height, 64)

	// === SECTION 2: Table ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Highlight source code").
				Description("Python and Go sources get syntax colors in the table").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.Table.Highlight),
			huh.NewConfirm().
				Title("Strict line ownership").
				Description("Reject payloads where two blocks claim the same source line?").
				Affirmative("Reject").
				Negative("Later block wins").
				Value(&cfg.StrictLines),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Server ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address for cfgview serve").
				Placeholder(cfg.Server.Addr).
				Value(&cfg.Server.Addr),
			huh.NewConfirm().
				Title("Watch payload files").
				Description("Reload open pages when the payload changes?").
				Value(&cfg.Server.Watch),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&cfg.Log.Level),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 4: Config Location ===
	if !locationChosen {
		saveLocationChoice := "project"
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Save Configuration").
					Description("Where to save the configuration file?").
					Options(
						huh.NewOption("Project (./.cfgview/config.yaml)", "project"),
						huh.NewOption("Global (~/.cfgview/config.yaml)", "global"),
					).
					Value(&saveLocationChoice),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		global = saveLocationChoice == "global"
	}

	configPath := config.ProjectConfigFilePath()
	if global {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// Validate config before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Diagram: %gx%g\n", cfg.Viewport.Width, cfg.Viewport.Height)
	fmt.Printf("Highlight: %t\n", cfg.Table.Highlight)
	fmt.Printf("Strict lines: %t\n", cfg.StrictLines)
	fmt.Printf("Server: %s (watch: %t)\n", cfg.Server.Addr, cfg.Server.Watch)
	fmt.Printf("Log level: %s\n", cfg.Log.Level)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func positiveNumber(s string) error {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func init() {
	initCmd.Flags().Bool("global", false, "Save to the global config (~/.cfgview/config.yaml)")
	RootCmd.AddCommand(initCmd)
}
