package ai

import (
	"errors"
	"strings"
)

var errNoSeat = errors.New("no primary seat configured")

/*
renderContext flattens a packed MemoryContext into the text block handed to
a seat. Sections appear in packing priority order: persona snapshot, then
long-term memory, then the recent conversation window.
*/
func renderContext(prepared MemoryContext) string {
	var b strings.Builder

	if prepared.Persona != "" {
		b.WriteString(prepared.Persona)
		b.WriteString("\n")
	}

	if len(prepared.Entries) > 0 {
		b.WriteString("\nRelevant memories:\n")
		for _, entry := range prepared.Entries {
			b.WriteString("- ")
			b.WriteString(entry.Snippet)
			b.WriteString("\n")
		}
	}

	if len(prepared.Window) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range prepared.Window {
			b.WriteString(string(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
	}

	return strings.TrimSpace(b.String())
}
