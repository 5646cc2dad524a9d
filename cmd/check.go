package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Attamusc/epic-digest/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the effective configuration",
	Long: `Check loads the configuration the same way serve and generate do and prints
the effective values with secrets masked. It fails when a required setting is
missing.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Flags{ConfigPath: configPath, Verbose: verbose, Quiet: quiet})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	printConfig(cmd.OutOrStdout(), cfg)

	if missing := cfg.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	successColor.Fprintln(cmd.OutOrStdout(), "Configuration complete")
	return nil
}

func printConfig(w io.Writer, cfg config.Config) {
	rows := [][2]string{
		{"Jira base URL", cfg.Jira.BaseURL},
		{"Jira email", cfg.Jira.Email},
		{"Jira API token", mask(cfg.Jira.APIToken)},
		{"Epic JQL", cfg.Jira.EpicJQL},
		{"Max results", fmt.Sprint(cfg.Jira.MaxResults)},
		{"Confluence base URL", cfg.Confluence.BaseURL},
		{"Confluence username", cfg.Confluence.Username},
		{"Confluence password", mask(cfg.Confluence.Password)},
		{"Space key", cfg.Confluence.SpaceKey},
		{"Model base URL", cfg.Models.BaseURL},
		{"Model", cfg.Models.Model},
		{"Model API key", mask(cfg.Models.APIKey)},
		{"Summarization", enabled(cfg.Models.Enabled)},
		{"Listen address", cfg.ListenAddr},
		{"HTTP timeout", cfg.HTTPTimeout.String()},
	}

	for _, row := range rows {
		infoColor.Fprintf(w, "%-20s ", row[0]+":")
		if row[1] == "" {
			warningColor.Fprintln(w, "(not set)")
			continue
		}
		fmt.Fprintln(w, row[1])
	}
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled (pass-through)"
}
