package ai

// SystemPrompt sets the persona of the model
const SystemPrompt = `You are a Project Manager specialized in creating high-level summaries for management. Your summaries should provide an executive overview of the current state of high-level features within a specific epic, focusing on progress, key accomplishments, and any significant issues or dependencies.`

// userInstructions follow the formatted epic block in the user message
const userInstructions = `Generate a concise, high-level summary in HTML format suitable for management consumption and compatible with Confluence integration via API. The summary should:

- Use valid HTML tags (e.g., <h2>, <p>, <ul>, <li>, <table>, <tr>, <th>, <td>).
- Include the following sections:
  - <a>Link to Epic</a>: Link to the epic and use epic title as link name.
  - <h2>Epic Summary</h2>: A brief description of the epic.
  - <h2>Current Status</h2>: Overall progress (e.g., percentage completed, milestones achieved).
  - <h2>Key Features</h2>: A table listing major features with columns for "Feature", "Status", and "Assignee".
  - <h2>Accomplishments</h2>: Notable achievements since the last update.
  - <h2>Challenges</h2>: Any significant issues or blockers.
  - <h2>Dependencies</h2>: Critical dependencies that may impact progress.
  - <h2>Next Steps</h2>: Upcoming actions or milestones.

Ensure the summary:
- Contains the Link to the epic including its title at the beginning of the page.
- Is clear, concise, and free of technical jargon.
- Provides a high-level perspective understandable to non-technical stakeholders.
- Contains only valid HTML elements.
- The final answer should only consist of the HTML code itself, without any Markdown formatting or code fences.
- Use inner quotes ('') for quoting.
`

// buildMessages renders the two-message chat template for a formatted epic block
func buildMessages(question string) []message {
	return []message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: question + "\n\n" + userInstructions},
	}
}
