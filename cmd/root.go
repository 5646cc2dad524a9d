package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "epic-digest",
	Short: "Summarize Jira epics into Confluence pages",
	Long: `epic-digest fetches a Jira epic together with its child stories and their
comments, asks a chat-completion model to write an HTML summary, and publishes
the result as a new Confluence page. It runs either as a small web front end
(serve) or directly from the command line (generate).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior - show help
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables take precedence)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose progress output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress all progress output")
}
