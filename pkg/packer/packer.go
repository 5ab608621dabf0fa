package packer

import (
	"fmt"
	"sort"

	"github.com/theapemachine/animus/pkg/memory"
)

// HealthStatus classifies how much the packer had to sacrifice.
type HealthStatus string

const (
	Healthy  HealthStatus = "healthy"
	Warning  HealthStatus = "warning"
	Critical HealthStatus = "critical"
)

// minViableTurns is the smallest short-term window the packer considers a
// usable conversation context.
const minViableTurns = 2

// Budget bounds the packed context.
type Budget struct {
	MaxContextLength   int
	MaxHistoryMessages int
	MaxLTMEntries      int
}

// DefaultBudget mirrors the configuration defaults.
func DefaultBudget() Budget {
	return Budget{
		MaxContextLength:   8000,
		MaxHistoryMessages: 10,
		MaxLTMEntries:      5,
	}
}

// Input is the candidate content competing for the budget.
type Input struct {
	Persona string
	Turns   []memory.Turn
	Entries []memory.RecallEntry
}

// Packed is the bounded result.
type Packed struct {
	Persona string
	Turns   []memory.Turn
	Entries []memory.RecallEntry
	Length  int
}

/*
Health reports the packer's verdict. Issues and Recommendations are
human-readable observability strings; nothing branches on them.
*/
type Health struct {
	Status          HealthStatus
	Utilization     float64
	DroppedTurns    int
	DroppedEntries  int
	Issues          []string
	Recommendations []string
}

/*
Pack concatenates content in priority order: persona snapshot first, then
the most recent short-term turns, then long-term entries by relevance
descending. When the total exceeds the length budget it prunes the
lowest-priority unit still standing: least-relevant long-term entry first,
then oldest short-term turn. The persona snapshot is foundational and fixed
size by contract; it is never pruned.
*/
func Pack(input Input, budget Budget) (Packed, Health) {
	if budget.MaxContextLength <= 0 {
		budget = DefaultBudget()
	}

	turns := input.Turns
	if budget.MaxHistoryMessages > 0 && len(turns) > budget.MaxHistoryMessages {
		turns = turns[len(turns)-budget.MaxHistoryMessages:]
	}
	turns = append([]memory.Turn(nil), turns...)

	entries := append([]memory.RecallEntry(nil), input.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Relevance > entries[j].Relevance
	})
	if budget.MaxLTMEntries > 0 && len(entries) > budget.MaxLTMEntries {
		entries = entries[:budget.MaxLTMEntries]
	}

	candidateTurns := len(turns)
	candidateEntries := len(entries)
	candidateLength := contentLength(input.Persona, turns, entries)

	length := candidateLength
	for length > budget.MaxContextLength {
		switch {
		case len(entries) > 0:
			// Least relevant sits at the tail after the sort above.
			length -= len(entries[len(entries)-1].Snippet)
			entries = entries[:len(entries)-1]
		case len(turns) > 0:
			length -= len(turns[0].Content)
			turns = turns[1:]
		default:
			// Only the persona remains; it is never pruned.
			length = len(input.Persona)
		}
		if len(entries) == 0 && len(turns) == 0 {
			break
		}
	}

	packed := Packed{
		Persona: input.Persona,
		Turns:   turns,
		Entries: entries,
		Length:  contentLength(input.Persona, turns, entries),
	}

	return packed, classify(packed, budget, candidateTurns, candidateEntries, candidateLength)
}

func classify(packed Packed, budget Budget, candidateTurns, candidateEntries, candidateLength int) Health {
	health := Health{
		DroppedTurns:   candidateTurns - len(packed.Turns),
		DroppedEntries: candidateEntries - len(packed.Entries),
	}
	if budget.MaxContextLength > 0 {
		health.Utilization = float64(packed.Length) / float64(budget.MaxContextLength)
	}

	pruned := health.DroppedTurns+health.DroppedEntries > 0
	survived := 1.0
	if candidateLength > 0 {
		survived = float64(packed.Length) / float64(candidateLength)
	}
	stmCut := health.DroppedTurns > 0 && len(packed.Turns) < minViableTurns

	switch {
	case !pruned && health.Utilization < 0.8:
		health.Status = Healthy
	case pruned && survived >= 0.5 && !stmCut:
		health.Status = Warning
		health.Issues = append(health.Issues,
			fmt.Sprintf("pruned %d long-term entries and %d turns to fit the budget",
				health.DroppedEntries, health.DroppedTurns))
		health.Recommendations = append(health.Recommendations,
			"consider raising maxContextLength or lowering maxLtmEntries")
	case !pruned:
		// No pruning but running hot against the budget.
		health.Status = Warning
		health.Issues = append(health.Issues,
			fmt.Sprintf("context at %.0f%% of budget", health.Utilization*100))
		health.Recommendations = append(health.Recommendations,
			"the next turn will likely trigger pruning")
	default:
		health.Status = Critical
		if stmCut {
			health.Issues = append(health.Issues,
				fmt.Sprintf("short-term window cut to %d turns, below the viable minimum of %d",
					len(packed.Turns), minViableTurns))
		} else {
			health.Issues = append(health.Issues,
				fmt.Sprintf("pruning removed %.0f%% of candidate content", (1-survived)*100))
		}
		health.Recommendations = append(health.Recommendations,
			"context budget is too small for this conversation; responses may lose continuity")
	}

	return health
}

func contentLength(persona string, turns []memory.Turn, entries []memory.RecallEntry) int {
	total := len(persona)
	for _, t := range turns {
		total += len(t.Content)
	}
	for _, e := range entries {
		total += len(e.Snippet)
	}
	return total
}
