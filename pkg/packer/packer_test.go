package packer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theapemachine/animus/pkg/memory"
)

func turns(contents ...string) []memory.Turn {
	out := make([]memory.Turn, 0, len(contents))
	for _, c := range contents {
		out = append(out, memory.Turn{Role: memory.RoleUser, Content: c})
	}
	return out
}

func TestPackNoOverflow(t *testing.T) {
	input := Input{
		Persona: "You are Vex.",
		Turns:   turns("hello", "hi there"),
		Entries: []memory.RecallEntry{{Snippet: "likes octrees", Relevance: 0.9}},
	}

	packed, health := Pack(input, Budget{
		MaxContextLength:   1000,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	})

	assert.Equal(t, Healthy, health.Status)
	assert.Zero(t, health.DroppedTurns)
	assert.Zero(t, health.DroppedEntries)
	assert.Len(t, packed.Turns, 2)
	assert.Len(t, packed.Entries, 1)
	assert.Equal(t, "You are Vex.", packed.Persona)
}

func TestPackPrunesLTMFirst(t *testing.T) {
	input := Input{
		Persona: "persona",
		Turns:   turns(strings.Repeat("a", 40), strings.Repeat("b", 40)),
		Entries: []memory.RecallEntry{
			{Snippet: strings.Repeat("x", 40), Relevance: 0.9},
			{Snippet: strings.Repeat("y", 40), Relevance: 0.2},
		},
	}

	// Fits persona + both turns + the most relevant entry only.
	packed, health := Pack(input, Budget{
		MaxContextLength:   130,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	})

	assert.Len(t, packed.Turns, 2, "turns outrank long-term entries")
	assert.Len(t, packed.Entries, 1)
	assert.InDelta(t, 0.9, packed.Entries[0].Relevance, 1e-9, "least relevant entry dropped first")
	assert.Equal(t, Warning, health.Status)
	assert.NotEmpty(t, health.Issues)
}

func TestPackDropsOldestTurnsAfterLTM(t *testing.T) {
	input := Input{
		Persona: "p",
		Turns:   turns(strings.Repeat("o", 50), "recent"),
		Entries: []memory.RecallEntry{{Snippet: strings.Repeat("x", 50), Relevance: 0.5}},
	}

	packed, _ := Pack(input, Budget{
		MaxContextLength:   40,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	})

	assert.Empty(t, packed.Entries)
	assert.Len(t, packed.Turns, 1)
	assert.Equal(t, "recent", packed.Turns[0].Content, "oldest turn pruned, newest kept")
}

func TestPackNeverPrunesPersona(t *testing.T) {
	input := Input{
		Persona: strings.Repeat("p", 500),
		Turns:   turns("a"),
	}

	packed, health := Pack(input, Budget{
		MaxContextLength:   100,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	})

	assert.Equal(t, input.Persona, packed.Persona)
	assert.Equal(t, Critical, health.Status)
}

func TestPackCriticalOnStmCut(t *testing.T) {
	input := Input{
		Persona: "p",
		Turns:   turns(strings.Repeat("a", 60), strings.Repeat("b", 60), strings.Repeat("c", 60)),
	}

	packed, health := Pack(input, Budget{
		MaxContextLength:   70,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	})

	assert.Less(t, len(packed.Turns), 2)
	assert.Equal(t, Critical, health.Status)
	assert.NotEmpty(t, health.Issues)
	assert.NotEmpty(t, health.Recommendations)
}

func TestPackHistoryMessageCap(t *testing.T) {
	var contents []string
	for i := 0; i < 20; i++ {
		contents = append(contents, fmt.Sprintf("turn-%d", i))
	}

	packed, _ := Pack(Input{Turns: turns(contents...)}, Budget{
		MaxContextLength:   10000,
		MaxHistoryMessages: 5,
		MaxLTMEntries:      5,
	})

	assert.Len(t, packed.Turns, 5)
	assert.Equal(t, "turn-19", packed.Turns[4].Content, "most recent turns kept")
}

func TestPackEntryRelevanceOrder(t *testing.T) {
	packed, _ := Pack(Input{
		Entries: []memory.RecallEntry{
			{Snippet: "low", Relevance: 0.1},
			{Snippet: "high", Relevance: 0.9},
			{Snippet: "mid", Relevance: 0.5},
		},
	}, Budget{MaxContextLength: 10000, MaxHistoryMessages: 10, MaxLTMEntries: 5})

	assert.Equal(t, "high", packed.Entries[0].Snippet)
	assert.Equal(t, "mid", packed.Entries[1].Snippet)
	assert.Equal(t, "low", packed.Entries[2].Snippet)
}
