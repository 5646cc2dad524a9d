package input

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
)

// issueKeyRegex matches Jira issue keys such as PLAT-123
var issueKeyRegex = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)-([0-9]+)$`)

// ParseIssueKey normalizes an issue key or browse link to its canonical key.
// Accepts "PLAT-123", "plat-123" and "https://<site>/browse/PLAT-123" (query and fragment allowed).
func ParseIssueKey(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", fmt.Errorf("issue key is empty")
	}

	if strings.Contains(candidate, "://") {
		parsedURL, err := url.Parse(candidate)
		if err != nil {
			return "", fmt.Errorf("invalid URL format: %s", raw)
		}
		idx := strings.Index(parsedURL.Path, "/browse/")
		if idx < 0 {
			return "", fmt.Errorf("URL is not an issue link: %s", raw)
		}
		candidate = strings.Trim(parsedURL.Path[idx+len("/browse/"):], "/")
	}

	key := strings.ToUpper(candidate)
	if !issueKeyRegex.MatchString(key) {
		return "", fmt.Errorf("invalid issue key: %s", raw)
	}
	return key, nil
}

// Job is one epic to document and the title of the page to create for it
type Job struct {
	EpicKey   string
	PageTitle string
}

// ParseJobs reads one job per line in the form "<key or link> | <page title>".
// Blank lines and lines starting with # are skipped. Repeated epics keep their first occurrence.
func ParseJobs(r io.Reader) ([]Job, error) {
	var jobs []Job
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rawKey, title, found := strings.Cut(line, "|")
		title = strings.TrimSpace(title)
		if !found || title == "" {
			return nil, fmt.Errorf("line %d: expected \"<epic> | <page title>\"", lineNo)
		}

		key, err := ParseIssueKey(rawKey)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if seen[key] {
			continue
		}
		seen[key] = true

		jobs = append(jobs, Job{EpicKey: key, PageTitle: title})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return jobs, nil
}
