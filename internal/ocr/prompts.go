package ocr

import "fmt"

const defaultPrompt = `Below is an image of a document page. Return the plain markdown representation of the page, reading it in natural order.
Render tables as markdown tables. If the page contains pictures, insert a short placeholder such as ![figure](figure.png) where each appears.
Your final output must be JSON with a single key "natural_text" holding the markdown.`

const structurePrompt = `Below is an image of a document page. Return the markdown representation of the page, reading it in natural order.
Render tables as HTML <table> elements so merged cells survive. Wrap each picture in <figure>...</figure> with a one-sentence description of what it shows.
Keep headings, lists and checkboxes (☐ / ☑) as they appear. Do not invent content that is not on the page.
Your final output must be JSON with a single key "natural_text" holding the markdown.`

// PromptFor returns the instruction sent along with the page for taskType.
func PromptFor(taskType string) (string, error) {
	switch taskType {
	case TaskDefault:
		return defaultPrompt, nil
	case TaskStructure:
		return structurePrompt, nil
	default:
		return "", fmt.Errorf("unsupported task_type %q (expected %q or %q)", taskType, TaskDefault, TaskStructure)
	}
}
