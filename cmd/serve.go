package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theapemachine/animus/pkg/ai"
	"github.com/theapemachine/animus/pkg/capsule"
	"github.com/theapemachine/animus/pkg/logging"
	"github.com/theapemachine/animus/pkg/memory"
	"github.com/theapemachine/animus/pkg/packer"
	"github.com/theapemachine/animus/pkg/provider"
	"github.com/theapemachine/animus/pkg/stores/vault"
)

var (
	logFileFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the context assembly core",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFileFlag != "" {
				if err := logging.Init(logFileFlag); err != nil {
					return err
				}
				defer logging.Close()
			}

			orchestrator, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orchestrator.Close()

			log.Info("animus core running", "config", viper.ConfigFileUsed())

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			stats := orchestrator.CacheStats()
			log.Info("shutting down",
				"cache_hits", stats.Hits,
				"cache_misses", stats.Misses,
				"cache_loads", stats.TotalLoads,
				"avg_load_time", stats.AvgLoadTime,
			)
			return nil
		},
	}
)

func buildOrchestrator() (*ai.Orchestrator, error) {
	vaultClient := vault.New(viper.GetString("vault.endpoint"))

	seats := buildSeats()

	orchestrator, err := ai.New(ai.Config{
		MaxStmWindow:  viper.GetInt("memory.max_stm_window"),
		MaxLTMEntries: viper.GetInt("memory.max_ltm_entries"),
		Budget: packer.Budget{
			MaxContextLength:   viper.GetInt("budget.max_context_length"),
			MaxHistoryMessages: viper.GetInt("budget.max_history_messages"),
			MaxLTMEntries:      viper.GetInt("memory.max_ltm_entries"),
		},
		Searcher:       memory.NewVaultSearcher(vaultClient),
		CapsuleSource:  capsule.NewVaultSource(vaultClient),
		MaxCacheSize:   viper.GetInt("capsule.max_cache_size"),
		Seats:          seats,
		SystemPrompt:   viper.GetString("prompt.system"),
		RecallTimeout:  viper.GetDuration("timeouts.recall"),
		CapsuleTimeout: viper.GetDuration("timeouts.capsule"),
		ProbeTimeout:   viper.GetDuration("timeouts.probe"),
		InvokeTimeout:  viper.GetDuration("timeouts.invoke"),
	})
	if err != nil {
		return nil, err
	}

	return orchestrator.WithTranscripts(ai.NewVaultTranscripts(vaultClient)), nil
}

// buildSeats assembles the triad from config. Unknown kinds are skipped with
// a warning rather than failing the boot; the gate will report the smaller
// triad honestly.
func buildSeats() []provider.Seat {
	var seats []provider.Seat

	configured, ok := viper.Get("triad.seats").([]any)
	if !ok {
		log.Warn("no triad seats configured")
		return nil
	}

	for _, raw := range configured {
		seat, _ := raw.(map[string]any)
		id, _ := seat["id"].(string)
		kind, _ := seat["kind"].(string)
		model, _ := seat["model"].(string)

		switch kind {
		case "openai":
			seats = append(seats, provider.NewOpenAISeat(id, provider.WithOpenAIModel(model)))
		case "anthropic":
			seats = append(seats, provider.NewAnthropicSeat(id, provider.WithAnthropicModel(model)))
		case "google":
			seats = append(seats, provider.NewGoogleSeat(id, provider.WithGoogleModel(model)))
		case "ollama":
			seats = append(seats, provider.NewOllamaSeat(id, provider.WithOllamaModel(model)))
		default:
			log.Warn("unknown seat kind, skipping", "id", id, "kind", kind)
		}
	}

	return seats
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Write logs to this file")

	viper.SetDefault("memory.max_stm_window", 10)
	viper.SetDefault("memory.max_ltm_entries", 5)
	viper.SetDefault("budget.max_context_length", 8000)
	viper.SetDefault("budget.max_history_messages", 10)
	viper.SetDefault("capsule.max_cache_size", 32)
	viper.SetDefault("timeouts.recall", 5*time.Second)
	viper.SetDefault("timeouts.capsule", 10*time.Second)
	viper.SetDefault("timeouts.probe", 3*time.Second)
	viper.SetDefault("timeouts.invoke", 30*time.Second)
}

var longServe = `
Run the Animus context assembly core.

Examples:
  # Run with the default config from ~/.animus/config.yml
  animus serve

  # Run with logs written to a file
  animus serve --log-file animus.log
`
