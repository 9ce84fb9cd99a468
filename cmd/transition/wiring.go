package main

import (
	"database/sql"

	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/infra/ai"
	"github.com/velist/gametest/internal/infra/journal"
	"github.com/velist/gametest/internal/infra/storage"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/logger"
	"github.com/velist/gametest/internal/platform/metrics"
)

// metered counts every persister write.
type metered struct {
	events.EventPersister
}

func (m metered) Append(ev events.GameEvent) error {
	err := m.EventPersister.Append(ev)
	metrics.Get().RecordEventWrite(err)
	return err
}

func apiKey(cfg config.Config) string {
	switch cfg.LLMProvider {
	case "openai":
		return cfg.OpenAIAPIKey
	case "anthropic":
		return cfg.AnthropicAPIKey
	default:
		return cfg.GeminiAPIKey
	}
}

// buildNarrator returns the LLM narrator, or static narration when no
// provider is configured.
func buildNarrator(cfg config.Config, log *logger.Logger) (narrative.Provider, error) {
	gate := ai.NewBudgetGate(cfg.DailyBudgetUSD, cfg.MonthlyBudgetUSD)
	llm, err := ai.NewProvider(cfg.LLMProvider, ai.Options{APIKey: apiKey(cfg), Model: cfg.LLMModel}, gate)
	if err != nil {
		return nil, err
	}
	if llm == nil || !llm.IsAvailable() {
		log.Warn("No LLM provider configured, narrating from static content")
		return narrative.Static{}, nil
	}
	log.Infof("Narrating with %s (%s)", llm.Name(), gate.GetStatus())
	return narrative.NewNarrator(llm, cfg.LLMModel, log), nil
}

// stores holds the optional durable sinks of the event log.
type stores struct {
	db        *sql.DB
	chronicle storage.ChronicleRepository
	events    storage.EventRepository
	journal   *journal.EventJournal
}

func openStores(cfg config.Config, log *logger.Logger) (*stores, []events.EventPersister, error) {
	s := &stores{}
	var persisters []events.EventPersister
	if cfg.ChronicleDB != "" {
		log.Infof("Opening chronicle database %s", cfg.ChronicleDB)
		db, err := storage.InitSQLite(cfg.ChronicleDB)
		if err != nil {
			return nil, nil, err
		}
		p := storage.NewPersister(db)
		s.db = db
		s.chronicle = p.Chronicle()
		s.events = p.Events()
		persisters = append(persisters, metered{p})
	}
	if cfg.JournalDir != "" {
		log.Infof("Journaling events to %s", cfg.JournalDir)
		s.journal = journal.NewEventJournal(cfg.JournalDir)
		persisters = append(persisters, metered{s.journal})
	}
	return s, persisters, nil
}

func (s *stores) Close() {
	if s.journal != nil {
		_ = s.journal.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
