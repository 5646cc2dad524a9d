package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Attamusc/epic-digest/internal/confluence"
	"github.com/Attamusc/epic-digest/internal/input"
	"github.com/Attamusc/epic-digest/internal/pipeline"
)

type fakeGenerator struct {
	mu   sync.Mutex
	reqs []pipeline.Request
	fail map[string]error
}

func (f *fakeGenerator) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if err := f.fail[req.EpicKey]; err != nil {
		return nil, err
	}
	result := &pipeline.Result{EpicKey: req.EpicKey, PageTitle: req.PageTitle, Markup: "<p>" + req.EpicKey + "</p>"}
	if !req.DryRun {
		result.Page = &confluence.Page{ID: "1"}
		result.Page.Links.Base = "https://wiki.example.com/wiki"
		result.Page.Links.WebUI = "/pages/" + req.EpicKey
	}
	return result, nil
}

func resetGenerateFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		pageTitle, inputPath, dryRun, showPrompt = "", "", false, false
	})
	pageTitle, inputPath, dryRun, showPrompt = "", "", false, false
}

func TestCollectJobs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		title   string
		input   string
		dry     bool
		stdin   string
		want    []input.Job
		wantErr string
	}{
		{
			name:  "single epic with title",
			args:  []string{"https://example.atlassian.net/browse/plat-7"},
			title: "Digest",
			want:  []input.Job{{EpicKey: "PLAT-7", PageTitle: "Digest"}},
		},
		{
			name: "dry run needs no title",
			args: []string{"PLAT-7"},
			dry:  true,
			want: []input.Job{{EpicKey: "PLAT-7"}},
		},
		{
			name:    "title required",
			args:    []string{"PLAT-7"},
			wantErr: "--title is required",
		},
		{
			name:    "no epic",
			wantErr: "an epic key or --input is required",
		},
		{
			name:    "invalid key",
			args:    []string{"nope"},
			title:   "x",
			wantErr: "invalid issue key",
		},
		{
			name:  "jobs from stdin",
			input: "-",
			stdin: "# weekly\nPLAT-1 | One\n\nPLAT-2 | Two\n",
			want: []input.Job{
				{EpicKey: "PLAT-1", PageTitle: "One"},
				{EpicKey: "PLAT-2", PageTitle: "Two"},
			},
		},
		{
			name:    "empty jobs input",
			input:   "-",
			stdin:   "# nothing here\n",
			wantErr: "no jobs found",
		},
		{
			name:    "argument and input together",
			args:    []string{"PLAT-1"},
			input:   "-",
			wantErr: "not both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGenerateFlags(t)
			pageTitle, inputPath, dryRun = tt.title, tt.input, tt.dry

			jobs, err := collectJobs(tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobs)
		})
	}
}

func TestRunJobs_PreservesOrder(t *testing.T) {
	gen := &fakeGenerator{fail: map[string]error{"PLAT-2": errors.New("boom")}}
	jobs := []input.Job{
		{EpicKey: "PLAT-1", PageTitle: "One"},
		{EpicKey: "PLAT-2", PageTitle: "Two"},
		{EpicKey: "PLAT-3", PageTitle: "Three"},
	}

	results := runJobs(context.Background(), gen, jobs, false, 2)

	require.Len(t, results, 3)
	assert.Len(t, gen.reqs, 3)
	for i, job := range jobs {
		assert.Equal(t, job, results[i].Job)
	}
	assert.NoError(t, results[0].Err)
	assert.EqualError(t, results[1].Err, "boom")
	assert.NoError(t, results[2].Err)
}

func TestRunJobs_PassesDryRun(t *testing.T) {
	gen := &fakeGenerator{}

	results := runJobs(context.Background(), gen, []input.Job{{EpicKey: "PLAT-1"}}, true, 0)

	require.Len(t, gen.reqs, 1)
	assert.True(t, gen.reqs[0].DryRun)
	assert.Nil(t, results[0].Result.Page)
}

func TestReportResults(t *testing.T) {
	resetGenerateFlags(t)
	color.NoColor = true

	gen := &fakeGenerator{fail: map[string]error{"PLAT-2": errors.New("boom")}}
	published := runJobs(context.Background(), gen, []input.Job{
		{EpicKey: "PLAT-1", PageTitle: "One"},
		{EpicKey: "PLAT-2", PageTitle: "Two"},
	}, false, 1)

	var out bytes.Buffer
	err := reportResults(&out, published)
	require.EqualError(t, err, "1 of 2 epics failed")
	assert.Contains(t, out.String(), `✓ PLAT-1 → "One" https://wiki.example.com/wiki/pages/PLAT-1`)
	assert.Contains(t, out.String(), "✗ PLAT-2: boom")

	out.Reset()
	dry := runJobs(context.Background(), &fakeGenerator{}, []input.Job{{EpicKey: "PLAT-3"}}, true, 1)
	require.NoError(t, reportResults(&out, dry))
	assert.Contains(t, out.String(), "<p>PLAT-3</p>")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "********wxyz", mask("secret-wxyz"))
}
