package format

import (
	"fmt"
	"strings"

	"github.com/Attamusc/epic-digest/internal/jira"
)

// Split partitions records into the single epic and its stories.
// It fails unless exactly one record is an epic.
func Split(records []jira.Record) (jira.Record, []jira.Record, error) {
	var epics, stories []jira.Record
	for _, record := range records {
		switch record.Category {
		case jira.CategoryEpic:
			epics = append(epics, record)
		case jira.CategoryStory:
			stories = append(stories, record)
		default:
			return jira.Record{}, nil, fmt.Errorf("record %s has unknown category %q", record.Key, record.Category)
		}
	}

	if len(epics) != 1 {
		return jira.Record{}, nil, fmt.Errorf("expected exactly one epic record, got %d", len(epics))
	}
	return epics[0], stories, nil
}

// IssueURL returns the browser link of an issue
func IssueURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/browse/" + key
}

// Prompt renders the epic and its stories as the plain-text block sent to the model,
// followed by a link line pointing at the epic.
// Labels and field order are fixed; the summarization template relies on them.
func Prompt(epic jira.Record, stories []jira.Record, issueURL string) string {
	lines := []string{"Epic:"}
	lines = append(lines, recordLines(epic, "")...)

	if len(stories) > 0 {
		lines = append(lines, "stories:")
		for _, story := range stories {
			lines = append(lines, recordLines(story, "  ")...)
		}
	}

	block := strings.TrimSpace(strings.Join(lines, "\n"))
	return block + "\nLink to app: " + issueURL
}

// recordLines renders one record followed by a blank separator line
func recordLines(record jira.Record, indent string) []string {
	return []string{
		indent + "title: " + record.Title,
		indent + "description: " + record.Description,
		indent + "status: " + record.Status,
		indent + "comments_string: " + record.Comments,
		"",
	}
}
