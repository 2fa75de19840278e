// Package travelmesh provides a high-level façade over the routing graph and
// its services (model, booking inventory, knowledge base, state store and
// logging). Most applications interact with this package by:
//  1. Creating a TravelMesh via New() from a config.Config (optionally
//     overriding the model, store or inventory)
//  2. Handling user messages with HandleMessage
//  3. Managing threads with NewThread, DeleteThread and TruncateThread
//
// All defaults are safe for local development and testing; production
// deployments typically configure a durable store and a real model provider.
package travelmesh

import (
	"context"
	"errors"
	"fmt"
	"io"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/travelmesh/agent"
	"github.com/hupe1980/travelmesh/config"
	"github.com/hupe1980/travelmesh/core"
	"github.com/hupe1980/travelmesh/flow"
	"github.com/hupe1980/travelmesh/knowledge"
	"github.com/hupe1980/travelmesh/logging"
	"github.com/hupe1980/travelmesh/model"
	"github.com/hupe1980/travelmesh/model/anthropic"
	"github.com/hupe1980/travelmesh/model/openai"
	"github.com/hupe1980/travelmesh/runner"
	"github.com/hupe1980/travelmesh/session"
	"github.com/hupe1980/travelmesh/session/afsstore"
	"github.com/hupe1980/travelmesh/session/sqlite"
	"github.com/hupe1980/travelmesh/tool"
	"github.com/hupe1980/travelmesh/travel"
)

type (
	// Request is one inbound user message.
	Request = runner.Request
	// Response is the answer to one Request.
	Response = runner.Response
	// Metrics is a snapshot of runner counters.
	Metrics = runner.Metrics
)

// Options configures the TravelMesh instance. Unset overrides are built from
// Config.
type Options struct {
	Config config.Config

	// Model overrides Config.Model.
	Model model.Model
	// Store overrides Config.Storage.
	Store core.StateStore
	// Inventory overrides Config.Inventory.
	Inventory travel.Inventory
	// Knowledge overrides the seeded in-memory knowledge base.
	Knowledge knowledge.Searcher
	// Extensions are optional tools assigned to agents by name.
	Extensions []tool.Tool
	// Prompts overrides agent system prompts by agent name.
	Prompts map[string]agent.Instruction

	// Logger defaults to a slog logger built from Config.Logging.
	Logger logging.Logger
}

// TravelMesh is the high-level façade aggregating the runner and its services.
type TravelMesh struct {
	runner  *runner.Runner
	defs    *agent.Definitions
	closers []io.Closer
	logger  logging.Logger
}

// New wires config -> model -> tools -> definitions -> store -> runner.
func New(ctx context.Context, optFns ...func(o *Options)) (*TravelMesh, error) {
	opts := Options{Config: config.Default()}

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = logging.New(cfg.LoggerConfig())
	}

	tm := &TravelMesh{logger: opts.Logger}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = newModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	inv := opts.Inventory
	if inv == nil {
		var err error
		if inv, err = tm.newInventory(ctx, cfg.Inventory); err != nil {
			return nil, tm.closeWith(err)
		}
	}

	kb := opts.Knowledge
	if kb == nil {
		store := knowledge.NewInMemoryStore()
		if err := knowledge.Seed(store); err != nil {
			return nil, tm.closeWith(fmt.Errorf("seed knowledge base: %w", err))
		}
		kb = store
	}

	catalog := travel.NewCatalog(inv, kb)

	defs, err := agent.NewDefinitions(catalog, agent.Extensions{Tools: opts.Extensions}, func(o *agent.DefinitionsOptions) {
		o.Prompts = opts.Prompts
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, tm.closeWith(err)
	}

	store := opts.Store
	if store == nil {
		if store, err = tm.newStore(ctx, cfg.Storage); err != nil {
			return nil, tm.closeWith(err)
		}
	}

	graph := flow.NewGraph(defs, m, func(o *flow.GraphOptions) {
		o.RecursionLimit = cfg.Graph.RecursionLimit
		o.Executor = flow.ExecutorConfig{
			MaxParallel: cfg.Graph.MaxParallelTools,
			CallTimeout: cfg.Graph.ToolTimeout,
		}
		o.Turn.Attempts = cfg.Graph.ModelAttempts
		o.Turn.Stream = cfg.Model.Stream
		o.Logger = opts.Logger
	})

	tm.defs = defs
	tm.runner = runner.New(graph, func(o *runner.Options) {
		o.Store = store
		o.MaxConcurrentRuns = cfg.Runner.MaxConcurrentRuns
		o.DisableThreadLock = !cfg.Runner.ThreadLock
		o.Logger = opts.Logger
	})

	opts.Logger.Info("travelmesh.started",
		"model", m.Info().Name,
		"provider", m.Info().Provider,
		"storage", cfg.Storage.Backend,
		"inventory", cfg.Inventory.Backend,
		"agents", defs.Names(),
	)

	return tm, nil
}

func newModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = sdk.Model(cfg.Name)
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
		}), nil
	case "mock":
		return model.NewMockModel(cfg.Name, "mock"), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

func (tm *TravelMesh) newInventory(ctx context.Context, cfg config.InventoryConfig) (travel.Inventory, error) {
	seed := travel.SeedData{}
	if cfg.Seed {
		seed = travel.DefaultSeed()
	}

	if cfg.Backend == "sqlite" {
		inv, err := travel.OpenSQLite(ctx, cfg.DSN, seed)
		if err != nil {
			return nil, err
		}
		tm.closers = append(tm.closers, inv)
		return inv, nil
	}

	return travel.NewMemoryInventory(seed), nil
}

func (tm *TravelMesh) newStore(ctx context.Context, cfg config.StorageConfig) (core.StateStore, error) {
	var durable core.StateStore

	switch cfg.Backend {
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		tm.closers = append(tm.closers, s)
		durable = s
	case "afs":
		durable = afsstore.New(cfg.URL)
	default:
		return session.NewInMemoryStore(), nil
	}

	if !cfg.Fallback {
		return durable, nil
	}

	return session.NewFallbackStore(durable, func(o *session.FallbackOptions) { o.Logger = tm.logger }), nil
}

func (tm *TravelMesh) closeWith(err error) error {
	return errors.Join(err, tm.Close())
}

// HandleMessage processes one user message.
func (tm *TravelMesh) HandleMessage(ctx context.Context, req Request) (Response, error) {
	return tm.runner.HandleMessage(ctx, req)
}

// Ask is a convenience wrapper around HandleMessage without user context.
func (tm *TravelMesh) Ask(ctx context.Context, threadID, query string) (Response, error) {
	return tm.runner.HandleMessage(ctx, Request{ThreadID: threadID, Query: query})
}

// NewThread creates an empty thread and returns its id.
func (tm *TravelMesh) NewThread(ctx context.Context) (string, error) { return tm.runner.NewThread(ctx) }

// DeleteThread removes a thread's stored state.
func (tm *TravelMesh) DeleteThread(ctx context.Context, threadID string) error {
	return tm.runner.DeleteThread(ctx, threadID)
}

// TruncateThread keeps about the last keepLast messages of a thread.
func (tm *TravelMesh) TruncateThread(ctx context.Context, threadID string, keepLast int) error {
	return tm.runner.TruncateThread(ctx, threadID, keepLast)
}

// CurrentAgent returns the active agent of a thread.
func (tm *TravelMesh) CurrentAgent(ctx context.Context, threadID string) (string, error) {
	return tm.runner.CurrentAgent(ctx, threadID)
}

// Agents returns the agent names, supervisor first.
func (tm *TravelMesh) Agents() []string { return tm.defs.Names() }

// Metrics returns a snapshot of runner counters.
func (tm *TravelMesh) Metrics() Metrics { return tm.runner.Metrics() }

// Close releases database handles.
func (tm *TravelMesh) Close() error {
	var errs []error
	for i := len(tm.closers) - 1; i >= 0; i-- {
		errs = append(errs, tm.closers[i].Close())
	}
	tm.closers = nil
	return errors.Join(errs...)
}
