package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/Attamusc/epic-digest/internal/input"
	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/logging"
	"github.com/Attamusc/epic-digest/internal/pipeline"
)

var (
	pageTitle   string
	inputPath   string
	concurrency int
	dryRun      bool
	showPrompt  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [EPIC]",
	Short: "Create a Confluence page summarizing an epic",
	Long: `Generate fetches an epic and its child stories, summarizes them and publishes
a new Confluence page. Pass a single epic key or browse link together with
--title, or use --input to read "<epic> | <page title>" lines from a file
("-" for stdin). With --dry-run the summary is printed instead of published.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&pageTitle, "title", "", "Title of the page to create")
	generateCmd.Flags().StringVar(&inputPath, "input", "", `Jobs file with "<epic> | <page title>" lines ("-" for stdin)`)
	generateCmd.Flags().IntVar(&concurrency, "concurrency", 2, "Number of epics processed at once")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the summary instead of publishing it")
	generateCmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the model prompt alongside the summary")
}

// JobResult represents the result of processing a single epic
type JobResult struct {
	Job    input.Job
	Result *pipeline.Result
	Err    error
}

// generator is satisfied by *pipeline.Runner
type generator interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jobs, err := collectJobs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(false)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd.Context(), logger)

	runner := newRunner(cfg, jira.New(cfg.Jira, cfg.HTTPTimeout), logger)

	logger.Info("Generating pages", "epics", len(jobs), "concurrency", concurrency, "dryRun", dryRun)
	results := runJobs(ctx, runner, jobs, dryRun, concurrency)

	return reportResults(cmd.OutOrStdout(), results)
}

// collectJobs builds the job list from the positional argument or the --input file
func collectJobs(args []string, stdin io.Reader) ([]input.Job, error) {
	if inputPath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either an epic argument or --input, not both")
		}

		reader := stdin
		if inputPath != "-" {
			file, err := os.Open(inputPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open input file: %w", err)
			}
			defer file.Close()
			reader = file
		}

		jobs, err := input.ParseJobs(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jobs: %w", err)
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no jobs found in %s", inputPath)
		}
		return jobs, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("an epic key or --input is required")
	}
	key, err := input.ParseIssueKey(args[0])
	if err != nil {
		return nil, err
	}
	if pageTitle == "" && !dryRun {
		return nil, fmt.Errorf("--title is required unless --dry-run is set")
	}
	return []input.Job{{EpicKey: key, PageTitle: pageTitle}}, nil
}

// runJobs processes jobs with at most limit pipelines in flight.
// Results keep the order of jobs.
func runJobs(ctx context.Context, gen generator, jobs []input.Job, dry bool, limit int) []JobResult {
	logger := logging.FromContext(ctx)
	if limit < 1 {
		limit = 1
	}

	results := make([]JobResult, len(jobs))
	semaphore := make(chan struct{}, limit)

	var completed atomic.Int32
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job input.Job) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire semaphore
			defer func() { <-semaphore }() // Release semaphore

			result, err := gen.Run(ctx, pipeline.Request{
				EpicKey:   job.EpicKey,
				PageTitle: job.PageTitle,
				DryRun:    dry,
			})
			results[i] = JobResult{Job: job, Result: result, Err: err}

			current := completed.Add(1)
			logger.Info("Processing epics", "completed", int(current), "total", len(jobs))
		}(i, job)
	}

	wg.Wait()
	return results
}

// reportResults prints one line per job and fails if any job failed
func reportResults(w io.Writer, results []JobResult) error {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			errorColor.Fprintf(w, "✗ %s: %v\n", r.Job.EpicKey, r.Err)
			continue
		}

		if r.Result.Page == nil {
			infoColor.Fprintf(w, "● %s (%s, %d stories)\n", r.Result.EpicKey, r.Result.EpicTitle, r.Result.Stories)
			if showPrompt {
				fmt.Fprintf(w, "\n%s\n\n", r.Result.Prompt)
			}
			fmt.Fprintf(w, "%s\n", r.Result.Markup)
			continue
		}

		successColor.Fprintf(w, "✓ %s → %q", r.Result.EpicKey, r.Result.PageTitle)
		if url := r.Result.Page.URL(); url != "" {
			fmt.Fprintf(w, " %s", url)
		}
		fmt.Fprintln(w)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d epics failed", failed, len(results))
	}
	return nil
}
