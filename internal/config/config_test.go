package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ATLASSIAN_BASE_URL", "JIRA_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN", "USERNAME", "PASSWORD",
	"CONFLUENCE_BASE_URL", "CONFLUENCE_USERNAME", "CONFLUENCE_PASSWORD", "CONFLUENCE_SPACE_KEY",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "DISABLE_SUMMARY",
	"EPIC_JQL", "JIRA_MAX_RESULTS", "HTTP_TIMEOUT", "LISTEN_ADDR",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Flags{})
	require.NoError(t, err)

	assert.Equal(t, DefaultModelsBaseURL, cfg.Models.BaseURL)
	assert.Equal(t, DefaultModel, cfg.Models.Model)
	assert.False(t, cfg.Models.Enabled)
	assert.Equal(t, DefaultSpaceKey, cfg.Confluence.SpaceKey)
	assert.Equal(t, DefaultEpicJQL, cfg.Jira.EpicJQL)
	assert.Equal(t, DefaultMaxResults, cfg.Jira.MaxResults)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)

	assert.ElementsMatch(t, []string{
		"ATLASSIAN_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN",
		"CONFLUENCE_BASE_URL", "CONFLUENCE_USERNAME", "CONFLUENCE_PASSWORD", "OPENAI_API_KEY",
	}, cfg.Missing())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATLASSIAN_BASE_URL", "https://example.atlassian.net/")
	t.Setenv("JIRA_EMAIL", "dev@example.com")
	t.Setenv("JIRA_API_TOKEN", "jira-token")
	t.Setenv("CONFLUENCE_USERNAME", "wiki@example.com")
	t.Setenv("CONFLUENCE_PASSWORD", "wiki-token")
	t.Setenv("CONFLUENCE_SPACE_KEY", "ENG")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JIRA_MAX_RESULTS", "10")
	t.Setenv("HTTP_TIMEOUT", "5s")

	cfg, err := Load(Flags{Verbose: true})
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net", cfg.Jira.BaseURL)
	assert.Equal(t, "https://example.atlassian.net", cfg.Confluence.BaseURL)
	assert.Equal(t, "dev@example.com", cfg.Jira.Email)
	assert.Equal(t, "jira-token", cfg.Jira.APIToken)
	assert.Equal(t, "ENG", cfg.Confluence.SpaceKey)
	assert.True(t, cfg.Models.Enabled)
	assert.Equal(t, 10, cfg.Jira.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Verbose)
	assert.Empty(t, cfg.Missing())
}

func TestLoad_LegacyCredentialNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("USERNAME", "legacy@example.com")
	t.Setenv("PASSWORD", "legacy-token")

	cfg, err := Load(Flags{})
	require.NoError(t, err)

	assert.Equal(t, "legacy@example.com", cfg.Jira.Email)
	assert.Equal(t, "legacy-token", cfg.Jira.APIToken)
}

func TestLoad_QuietDisablesVerbose(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Flags{Verbose: true, Quiet: true})
	require.NoError(t, err)

	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.Quiet)
}

func TestLoad_DisableSummary(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DISABLE_SUMMARY", "1")

	cfg, err := Load(Flags{})
	require.NoError(t, err)
	assert.False(t, cfg.Models.Enabled)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "max results not a number", key: "JIRA_MAX_RESULTS", value: "many", want: "JIRA_MAX_RESULTS"},
		{name: "max results negative", key: "JIRA_MAX_RESULTS", value: "-1", want: "JIRA_MAX_RESULTS"},
		{name: "timeout not a duration", key: "HTTP_TIMEOUT", value: "soon", want: "HTTP_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(Flags{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EpicJQLTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{name: "default style", template: `"Epic Link" = "%s"`},
		{name: "parent field", template: `parent = %s ORDER BY rank`},
		{name: "escaped percent", template: `parent = %s AND summary ~ "50%%"`},
		{name: "no placeholder", template: `parent = PLAT`, wantErr: true},
		{name: "bare percent", template: `parent = %s AND summary ~ "50%"`, wantErr: true},
		{name: "two placeholders", template: `parent = %s OR key = %s`, wantErr: true},
		{name: "other verb", template: `parent = %d`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("EPIC_JQL", tt.template)

			cfg, err := Load(Flags{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "EPIC_JQL")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.template, cfg.Jira.EpicJQL)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFLUENCE_SPACE_KEY", "FROMENV")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
atlassian:
  base_url: https://file.atlassian.net
jira:
  email: file@example.com
  api_token: file-token
  max_results: 25
confluence:
  space_key: FROMFILE
models:
  model: gpt-4o-mini
server:
  listen_addr: ":9090"
  http_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(Flags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "https://file.atlassian.net", cfg.Jira.BaseURL)
	assert.Equal(t, "https://file.atlassian.net", cfg.Confluence.BaseURL)
	assert.Equal(t, "file@example.com", cfg.Jira.Email)
	assert.Equal(t, 25, cfg.Jira.MaxResults)
	assert.Equal(t, "FROMENV", cfg.Confluence.SpaceKey, "environment overrides the file")
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Model)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jira: [unclosed"), 0o600))
	_, err = Load(Flags{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
