package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/internal/config"
	"github.com/l3aro/go-usage-graph/internal/healthcheck"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ugraph configuration interactively",
	Long: `Guides you through setting up ugraph configuration step by step.
Creates a config file with construction, export and logging settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Construction ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Strict structure").
				Description("Fail the build when a containment link is rejected?").
				Affirmative("Yes, fail").
				Negative("No, skip it").
				Value(&cfg.StrictStructure),
			huh.NewConfirm().
				Title("Global fallback").
				Description("Resolve reads with no reaching definition against file-level definitions?").
				Value(&cfg.GlobalFallback),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Export and logging ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default export format").
				Options(
					huh.NewOption("JSON", "json"),
					huh.NewOption("MessagePack", "msgpack"),
					huh.NewOption("Graphviz DOT", "dot"),
				).
				Value(&cfg.ExportFormat),
			huh.NewConfirm().
				Title("Hide temporal edges in DOT output?").
				Value(&cfg.InvisibleTemporalEdges),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions(config.LogLevels...)...).
				Value(&cfg.LogLevel),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.ugraph/config.yaml)", "global"),
					huh.NewOption("Project (./.ugraph/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

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

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Strict structure: %v\n", cfg.StrictStructure)
	fmt.Printf("Global fallback: %v\n", cfg.GlobalFallback)
	fmt.Printf("Export format: %s\n", cfg.ExportFormat)
	fmt.Printf("Invisible temporal edges: %v\n", cfg.InvisibleTemporalEdges)
	fmt.Printf("Log level: %s\n", cfg.LogLevel)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	fmt.Println("\n=== Running Health Check ===")
	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("reloading saved config: %w", err)
	}
	result, err := healthcheck.Check(loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(result)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
