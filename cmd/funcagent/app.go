package main

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/hupe1980/funcagent/agent"
	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/callback/tracing"
	"github.com/hupe1980/funcagent/config"
	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/logging"
	"github.com/hupe1980/funcagent/memory"
	"github.com/hupe1980/funcagent/model"
	"github.com/hupe1980/funcagent/model/anthropic"
	"github.com/hupe1980/funcagent/model/openai"
	"github.com/hupe1980/funcagent/runner"
)

// app bundles everything built from a Config.
type app struct {
	runner *runner.Runner
	logger logging.Logger
	tp     *sdktrace.TracerProvider
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	lc := cfg.LoggerConfig()
	lc.Component = "funcagent"
	lc.Output = opts.Stderr
	logger := logging.NewLogger(lc)

	callbacks := callback.NewManager(callback.NewLoggingHandler(logger))

	a := &app{logger: logger}

	if cfg.Tracing.Enabled {
		tp, err := tracing.NewProvider(ctx, tracing.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			ServiceName: cfg.Tracing.ServiceName,
			Headers:     cfg.Tracing.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}

		a.tp = tp
		callbacks.AddHandler(tracing.NewHandler(tp))
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	worker, err := agent.NewWorker(backend, func(o *agent.WorkerOptions) {
		o.Tools = calculatorTools()
		o.SystemPrompt = cfg.SystemPrompt
		o.Verbose = cfg.Verbose
		o.VerboseWriter = opts.Stdout
		o.MaxFunctionCalls = cfg.MaxFunctionCalls
		o.CallbackManager = callbacks
		o.Logger = logger
	})
	if err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}

	mem := memory.NewBuffer(func(o *memory.BufferOptions) {
		o.TokenLimit = cfg.Memory.TokenLimit
		o.Counter = newCounter(cfg, logger)
	})

	a.runner = runner.New(worker, func(o *runner.Options) {
		o.Memory = mem
		o.Logger = logger
	})

	logger.Debug("app.ready",
		"provider", cfg.Provider,
		"model", backend.Info().Name,
		"max_function_calls", cfg.MaxFunctionCalls,
		"tracing", cfg.Tracing.Enabled,
	)

	return a, nil
}

// Close flushes pending spans.
func (a *app) Close(ctx context.Context) {
	if a.tp == nil {
		return
	}

	if err := a.tp.Shutdown(ctx); err != nil {
		a.logger.Warn("app.tracing.shutdown", "error", err.Error())
	}
}

func newBackend(cfg *config.Config) (model.Backend, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderScripted:
		turns, err := scriptTurns(cfg.Script)
		if err != nil {
			return nil, err
		}

		return model.NewScriptedBackend(turns), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func scriptTurns(script []config.ScriptTurn) ([]core.Message, error) {
	if len(script) == 0 {
		return nil, errors.New("scripted provider needs at least one script turn")
	}

	turns := make([]core.Message, 0, len(script))
	for i, st := range script {
		if st.Tool == "" {
			turns = append(turns, core.NewAssistantMessage(st.Content))
			continue
		}

		turns = append(turns, core.NewAssistantMessage(st.Content, core.ToolSelection{
			ToolID:     fmt.Sprintf("call_%d", i+1),
			ToolName:   st.Tool,
			ToolKwargs: st.Args,
		}))
	}

	return turns, nil
}

// newCounter prefers tiktoken and degrades to word counting when the
// encoding cannot be loaded.
func newCounter(cfg *config.Config, logger logging.Logger) memory.TokenCounter {
	if cfg.Memory.Tokenizer == config.TokenizerNaive {
		return memory.NaiveCounter{}
	}

	counter, err := memory.NewTiktokenCounter(cfg.Model)
	if err != nil {
		logger.Warn("app.tokenizer.fallback", "tokenizer", cfg.Memory.Tokenizer, "error", err.Error())
		return memory.NaiveCounter{}
	}

	return counter
}
