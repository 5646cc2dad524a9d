package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front end",
	Long: `Serve starts the HTML form front end. Submitting an epic ID and a page title
runs the full pipeline synchronously and shows a link to the new page.
The tracker passthrough endpoints under /jira are served as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (overrides LISTEN_ADDR, default :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(true)
	if err != nil {
		return err
	}

	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	gin.SetMode(gin.ReleaseMode)

	tracker := jira.New(cfg.Jira, cfg.HTTPTimeout)
	server := web.NewServer(newRunner(cfg, tracker, logger), tracker, logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd.Context(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
