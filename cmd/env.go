package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/blueline-sports/streamer-cli/internal/engine"
	"github.com/blueline-sports/streamer-cli/internal/ingest"
	"github.com/blueline-sports/streamer-cli/internal/registry"
	"github.com/blueline-sports/streamer-cli/internal/store"
	anthropicpkg "github.com/blueline-sports/streamer-cli/pkg/anthropic"
	"github.com/blueline-sports/streamer-cli/pkg/mailer"
	"github.com/blueline-sports/streamer-cli/pkg/nhl"
	"github.com/blueline-sports/streamer-cli/pkg/retrieval"
	"github.com/blueline-sports/streamer-cli/pkg/yahoo"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "streamer.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// env bundles everything a command needs to execute runs.
type env struct {
	Store        store.Store
	Fetcher      *ingest.Fetcher
	Orchestrator *engine.Orchestrator
	Retrieval    retrieval.Client
	Mailer       mailer.Mailer
	Analyst      *engine.Analyst
}

func (e *env) Close() {
	_ = e.Store.Close()
}

// initEnv wires the provider clients, capabilities and orchestrator from
// configuration. promptsPath may be empty for the embedded defaults.
func initEnv(ctx context.Context, promptsPath string) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	prompts, err := registry.LoadPrompts(promptsPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	var reasoner engine.Reasoner
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		reasoner = engine.NewReasoner(client, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens))
	}

	var retrievalClient retrieval.Client
	var retriever engine.Retriever
	if cfg.Retrieval.BaseURL != "" {
		retrievalClient = retrieval.NewClient(cfg.Retrieval.BaseURL, cfg.Retrieval.Key, cfg.Retrieval.Collection,
			retrieval.WithTimeout(time.Duration(cfg.Retrieval.TimeoutSecs)*time.Second))
		retriever = engine.NewRetriever(retrievalClient)
	}

	rosterClient := yahoo.NewClient(cfg.Yahoo.BaseURL, cfg.Yahoo.AccessToken, cfg.Yahoo.LeagueKey, cfg.Yahoo.TeamKey)
	scheduleClient := nhl.NewClient(cfg.NHL.BaseURL, nhl.WithRateLimit(cfg.NHL.RequestsPerSec))

	analyst := engine.NewAnalyst(retriever, st, cfg.Engine, cfg.League.HistoricalTopK)
	evaluator := engine.NewEvaluator(reasoner, prompts, cfg.League)
	planner := engine.NewPlanner(cfg.League)
	synthesizer := engine.NewSynthesizer(reasoner, prompts)

	var mail mailer.Mailer
	if cfg.Email.Host != "" && cfg.Email.To != "" {
		mail = mailer.New(mailer.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		})
	}

	return &env{
		Store:        st,
		Fetcher:      ingest.NewFetcher(rosterClient, scheduleClient, 0),
		Orchestrator: engine.NewOrchestrator(analyst, evaluator, planner, synthesizer, st, cfg.League, cfg.Engine),
		Retrieval:    retrievalClient,
		Mailer:       mail,
		Analyst:      analyst,
	}, nil
}
