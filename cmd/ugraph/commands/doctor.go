package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-usage-graph/internal/config"
	"github.com/l3aro/go-usage-graph/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration and graph construction",
	Long: `Checks the configuration and verifies that a probe program builds and
exports under the configured options.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		result, err := healthcheck.Check(cfg, "", effectiveConfigPath(cmd))
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if !result.OK() {
			return fmt.Errorf("health check failed: one or more checks did not pass")
		}
		return nil
	},
}

// effectiveConfigPath returns the highest priority config file in use, or ""
// when only defaults apply.
func effectiveConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	for _, path := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(result *healthcheck.HealthCheckResult) {
	if result.EffectivePath != "" {
		fmt.Printf("Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	} else {
		fmt.Print("Using config: defaults (run 'ugraph init' to create a config file)\n\n")
	}

	for _, c := range []healthcheck.CheckStatus{result.Config, result.Builder, result.Export} {
		fmt.Printf("%-8s %s %s", c.Name+":", formatStatusIcon(c.Status), c.Status)
		if c.Detail != "" {
			fmt.Printf(" (%s)", c.Detail)
		}
		fmt.Println()
		if c.Error != "" {
			fmt.Printf("  Error: %s\n", c.Error)
		}
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusSkipped:
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
