// Package persona implements the six workflow roles as thin layers over
// the llm client: each one owns its prompt, its response schema, and the
// validation of the decoded result.
package persona

import (
	"bytes"
	"strings"
)

// promptSpec is the shared section layout of every persona prompt. Empty
// sections are omitted from the rendered text.
type promptSpec struct {
	Purpose     string
	Background  string
	Input       string
	Output      string
	Constraints []string
	Rules       []string
}

func (p promptSpec) render() string {
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", p.Purpose)
	writeSection(&buf, "BACKGROUND", p.Background)
	writeSection(&buf, "INPUT", p.Input)
	writeSection(&buf, "OUTPUT", p.Output)
	writeSection(&buf, "CONSTRAINTS", formatList(p.Constraints))
	writeSection(&buf, "RULES", formatList(p.Rules))
	return strings.TrimSpace(buf.String()) + "\n"
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		buf.WriteString("- ")
		buf.WriteString(item)
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
