package jira

import (
	"encoding/json"

	"github.com/Attamusc/epic-digest/internal/adf"
)

// Category distinguishes the parent issue from its children
type Category string

const (
	CategoryEpic  Category = "epic"
	CategoryStory Category = "story"
)

// DefaultFields is the field set requested for every issue
var DefaultFields = []string{"summary", "description", "status", "assignee"}

// Record is the flat form of one issue
type Record struct {
	Key         string
	Title       string
	Description string
	Status      string
	Assignee    string
	Comments    string
	Category    Category
	Extra       map[string]string // any requested field without a dedicated slot
}

// rawIssue is an issue as returned by the issue and search endpoints
type rawIssue struct {
	ID     string                     `json:"id"`
	Key    string                     `json:"key"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// Extractor turns an issue's field map into the text of one field
type Extractor func(fields map[string]json.RawMessage) string

type fieldSpec struct {
	apiName string // name sent in the fields= query parameter
	extract Extractor
	assign  func(r *Record, value string)
}

var (
	titleSpec = fieldSpec{
		apiName: "summary",
		extract: textField("summary"),
		assign:  func(r *Record, v string) { r.Title = v },
	}

	// fieldTable maps a requested field name to how it is read and where it is stored
	fieldTable = map[string]fieldSpec{
		"title":   titleSpec,
		"summary": titleSpec,
		"description": {
			apiName: "description",
			extract: textField("description"),
			assign:  func(r *Record, v string) { r.Description = v },
		},
		"status": {
			apiName: "status",
			extract: nestedField("status", "name"),
			assign:  func(r *Record, v string) { r.Status = v },
		},
		"assignee": {
			apiName: "assignee",
			extract: nestedField("assignee", "displayName"),
			assign:  func(r *Record, v string) { r.Assignee = v },
		},
	}
)

// specFor returns the table entry for name, or a passthrough entry stored in Extra
func specFor(name string) fieldSpec {
	if spec, ok := fieldTable[name]; ok {
		return spec
	}
	return fieldSpec{
		apiName: name,
		extract: textField(name),
		assign: func(r *Record, v string) {
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[name] = v
		},
	}
}

// textField flattens a field that may hold a rich document or a plain value
func textField(name string) Extractor {
	return func(fields map[string]json.RawMessage) string {
		return adf.Text(fields[name])
	}
}

// nestedField reads fields[name][key] as a string; null objects yield ""
func nestedField(name, key string) Extractor {
	return func(fields map[string]json.RawMessage) string {
		raw, ok := fields[name]
		if !ok {
			return ""
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return ""
		}
		return adf.Stringify(obj[key])
	}
}

// apiFields maps requested field names to the names the API understands, without duplicates
func apiFields(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		api := specFor(name).apiName
		if seen[api] {
			continue
		}
		seen[api] = true
		out = append(out, api)
	}
	return out
}

// BuildRecord normalizes a raw issue into a Record using the field table.
// comments is the already aggregated comment text.
func BuildRecord(issue rawIssue, fields []string, category Category, comments string) Record {
	record := Record{
		Key:      issue.Key,
		Category: category,
		Comments: comments,
	}
	for _, name := range fields {
		spec := specFor(name)
		spec.assign(&record, spec.extract(issue.Fields))
	}
	return record
}
