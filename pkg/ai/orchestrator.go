package ai

// Orchestrator is the context assembly core: it owns the short-term window,
// the long-term recall adapter, the capsule cache, the budget packer, the
// triad gate and the response filter, and composes them behind the
// CaptureMessage / PrepareContext / OrchestrateResponse contract the
// front-end layer consumes. It is an explicit service object - construct it
// with New, pass the handle around, Close it when done. There is no ambient
// global state.

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theapemachine/animus/pkg/capsule"
	"github.com/theapemachine/animus/pkg/errors"
	"github.com/theapemachine/animus/pkg/filter"
	"github.com/theapemachine/animus/pkg/memory"
	"github.com/theapemachine/animus/pkg/packer"
	"github.com/theapemachine/animus/pkg/provider"
	"github.com/theapemachine/animus/pkg/triad"
)

// StoreReceipt reports whether the transcript store accepted an exchange
// and whether it recognized it as a duplicate.
type StoreReceipt struct {
	OK        bool
	Duplicate bool
}

// TranscriptStore is the optional boundary exchanges are forwarded to at
// capture time. Failures degrade silently; the window is the source of truth
// for the current conversation.
type TranscriptStore interface {
	Store(ctx context.Context, callsign, packedContext, response string, metadata map[string]any) (StoreReceipt, error)
}

// Config wires an Orchestrator. Zero values select documented defaults.
type Config struct {
	MaxStmWindow  int
	MaxLTMEntries int
	Budget        packer.Budget

	Searcher      memory.Searcher
	CapsuleSource capsule.Source
	MaxCacheSize  int

	Seats       []provider.Seat
	PrimarySeat provider.Seat

	SystemPrompt string

	RecallTimeout  time.Duration
	CapsuleTimeout time.Duration
	ProbeTimeout   time.Duration
	InvokeTimeout  time.Duration
}

/*
MemoryContext is the packed result of PrepareContext: produced fresh on
every call, never mutated after construction, no identity beyond the call
that produced it.
*/
type MemoryContext struct {
	Window  []memory.Turn
	Entries []memory.RecallEntry
	Persona string
	Packed  packer.Packed
	Health  packer.Health

	// RecallDegraded marks that long-term memory was unavailable and the
	// entries are a documented empty fallback.
	RecallDegraded bool
	// CapsuleDegraded marks that the capsule could not be loaded and the
	// persona snapshot is empty.
	CapsuleDegraded bool
}

// PrepareOptions select the retrieval mode for PrepareContext.
type PrepareOptions struct {
	// Query switches long-term recall to a cross-session semantic search.
	// When empty, recall is scoped to the key's thread.
	Query string
}

type Orchestrator struct {
	window *memory.Window
	recall *memory.Recall
	cache  *capsule.Cache
	gate   *triad.Gate
	filter *filter.Filter

	transcripts TranscriptStore
	primary     provider.Seat

	systemPrompt  string
	budget        packer.Budget
	maxLTMEntries int
	invokeTimeout time.Duration
}

// New constructs an Orchestrator from the given configuration.
func New(config Config) (*Orchestrator, error) {
	if config.MaxLTMEntries <= 0 {
		config.MaxLTMEntries = 5
	}
	if config.InvokeTimeout <= 0 {
		config.InvokeTimeout = 30 * time.Second
	}
	if config.Budget.MaxContextLength <= 0 {
		config.Budget = packer.DefaultBudget()
	}

	probers := make([]triad.Prober, 0, len(config.Seats))
	for _, seat := range config.Seats {
		probers = append(probers, seat)
	}

	primary := config.PrimarySeat
	if primary == nil && len(config.Seats) > 0 {
		primary = config.Seats[0]
	}

	return &Orchestrator{
		window: memory.NewWindow(config.MaxStmWindow),
		recall: memory.NewRecall(config.Searcher, config.RecallTimeout),
		cache: capsule.NewCache(
			config.CapsuleSource,
			config.MaxCacheSize,
			capsule.WithFetchTimeout(config.CapsuleTimeout),
			capsule.WithRetry(errors.DefaultRetryConfig()),
		),
		gate:          triad.NewGate(probers, config.ProbeTimeout),
		filter:        filter.New(),
		primary:       primary,
		systemPrompt:  config.SystemPrompt,
		budget:        config.Budget,
		maxLTMEntries: config.MaxLTMEntries,
		invokeTimeout: config.InvokeTimeout,
	}, nil
}

// WithTranscripts attaches the optional transcript store exchanges are
// forwarded to at capture time.
func (orch *Orchestrator) WithTranscripts(store TranscriptStore) *Orchestrator {
	orch.transcripts = store
	return orch
}

// Close releases the orchestrator's in-process state.
func (orch *Orchestrator) Close() {
	orch.cache.Clear()
}

/*
CaptureMessage appends a turn to the key's short-term window and best-effort
forwards it to the transcript store. Appends for one key must arrive in
order; callers serialize per key. The appended turn is returned so callers
can correlate it with downstream records.
*/
func (orch *Orchestrator) CaptureMessage(
	ctx context.Context, key memory.Key, role memory.Role, content string, metadata map[string]any,
) memory.Turn {
	turn := memory.Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}

	orch.window.Append(key, turn)

	if orch.transcripts != nil {
		meta := map[string]any{
			"turn_id":   turn.ID,
			"role":      string(role),
			"user_id":   key.UserID,
			"thread_id": key.ThreadID,
		}
		if _, err := orch.transcripts.Store(ctx, key.ConstructID, "", content, meta); err != nil {
			log.Warn("transcript forward degraded", "construct", key.ConstructID, "error", err)
		}
	}

	return turn
}

/*
PrepareContext assembles the packed per-turn context: the short-term window,
long-term recall (thread-scoped unless a query is given), and the capsule
persona snapshot, packed under the configured budget. Recall and the capsule
load run concurrently; either failing degrades the result instead of
failing the call.
*/
func (orch *Orchestrator) PrepareContext(
	ctx context.Context, key memory.Key, opts PrepareOptions,
) (MemoryContext, error) {
	turns := orch.window.Read(key)

	var (
		recalled memory.RecallResult
		persona  string
		degraded bool
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		recalled = orch.recall.Query(groupCtx, key.ConstructID, memory.RecallOptions{
			ThreadID:  key.ThreadID,
			QueryText: opts.Query,
		}, orch.maxLTMEntries)
		return nil
	})

	group.Go(func() error {
		loaded, err := orch.cache.Load(groupCtx, key.ConstructID)
		if err != nil {
			log.Warn("capsule load degraded", "construct", key.ConstructID, "error", err)
			degraded = true
			return nil
		}
		persona = loaded.Summary()
		return nil
	})

	if err := group.Wait(); err != nil {
		return MemoryContext{}, err
	}

	packed, health := packer.Pack(packer.Input{
		Persona: persona,
		Turns:   turns,
		Entries: recalled.Entries,
	}, orch.budget)

	return MemoryContext{
		Window:          packed.Turns,
		Entries:         packed.Entries,
		Persona:         persona,
		Packed:          packed,
		Health:          health,
		RecallDegraded:  recalled.Degraded,
		CapsuleDegraded: degraded,
	}, nil
}

/*
OrchestrateResponse runs the full turn: gate check, capture, context
assembly, model invocation, filtering, and capture of the reply. The gate is
a hard precondition - an unhealthy triad fails the call with a
TriadBrokenError naming the failed seats before any model is invoked,
because a partially available triad produces responses attributable to the
wrong persona/model mix. A slow or failing model call degrades to a
summary-based fallback instead.
*/
func (orch *Orchestrator) OrchestrateResponse(
	ctx context.Context, key memory.Key, userMessage string,
) (string, error) {
	status := orch.gate.CheckAvailability(ctx)
	if !status.Healthy {
		return "", errors.TriadBroken(status.FailedSeats...)
	}

	orch.CaptureMessage(ctx, key, memory.RoleUser, userMessage, nil)

	prepared, err := orch.PrepareContext(ctx, key, PrepareOptions{})
	if err != nil {
		return "", err
	}

	response, err := orch.invoke(ctx, prepared, userMessage)
	if err != nil {
		log.Warn("model invocation degraded, using summary fallback",
			"construct", key.ConstructID, "error", err)
		response = orch.fallback(prepared)
	}

	response = orch.filter.Apply(response)
	orch.CaptureMessage(ctx, key, memory.RoleAssistant, response, nil)

	return response, nil
}

func (orch *Orchestrator) invoke(
	ctx context.Context, prepared MemoryContext, userMessage string,
) (string, error) {
	if orch.primary == nil {
		return "", errors.NewDegraded("orchestrator", "summary response", errNoSeat)
	}

	ctx, cancel := context.WithTimeout(ctx, orch.invokeTimeout)
	defer cancel()

	return orch.primary.Invoke(ctx, orch.systemPrompt, renderContext(prepared), userMessage)
}

// fallback renders a degraded summary-based response from whatever context
// survived packing.
func (orch *Orchestrator) fallback(prepared MemoryContext) string {
	if prepared.Persona != "" {
		return "I'm having trouble reaching my reasoning seats right now. " +
			"Based on what I remember: " + prepared.Persona
	}
	return "I'm having trouble reaching my reasoning seats right now; please try again shortly."
}

// CacheStats exposes the capsule cache counters for operational tooling.
func (orch *Orchestrator) CacheStats() capsule.Stats {
	return orch.cache.Stats()
}

// ClearCache wholesale-invalidates every cached capsule.
func (orch *Orchestrator) ClearCache() {
	orch.cache.Clear()
}
