// Package agent assembles the SQL agent: an OpenAI-compatible chat model, the
// SQL toolkit and a function-calling executor. Reasoning, tool selection and
// retries all happen inside the executor; this package only wires inputs and
// converts the executor's intermediate steps into a trace.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/tools"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
	"sqlagent/cli/internal/trace"
)

const (
	inputKey             = "input"
	outputKey            = "output"
	intermediateStepsKey = "intermediateSteps"

	// DefaultMaxIterations bounds the tool-calling loop of one turn.
	DefaultMaxIterations = 15
)

// Config describes the model the agent talks to.
type Config struct {
	// Provider is a display name used in messages, e.g. "groq".
	Provider string
	// APIKeyEnv names the variable the key is read from, for hints.
	APIKeyEnv     string
	APIKey        string
	Model         string
	BaseURL       string
	MaxIterations int
	TopK          int
	// Logger receives warnings and, when Verbose is set, every agent action.
	Logger  *pterm.Logger
	Verbose bool
}

// Response is the result of one successful turn.
type Response struct {
	Output string
	Steps  trace.Trace
}

// Agent runs turns against one database.
type Agent struct {
	cfg    Config
	llm    llms.Model
	tools  []tools.Tool
	system string
	// missingKey is returned by every Invoke when no API key was configured.
	missingKey error
	newChain   func(history schema.ChatMessageHistory) chains.Chain
}

// New builds an agent for db. schemaText is the rendered schema description.
// A missing API key is not an error here: a warning is logged and every Invoke
// fails with a provider_auth error instead.
func New(cfg Config, db sqlexec.Database, schemaText string) (*Agent, error) {
	cfg = withDefaults(cfg)

	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.Logger.Warn(fmt.Sprintf("%s not found in environment variables", cfg.APIKeyEnv),
			cfg.Logger.Args("provider", cfg.Provider))
		a := newAgent(cfg, db, schemaText, nil)
		a.missingKey = apperrors.New(apperrors.ProviderAuth,
			fmt.Sprintf("no API key configured for %s (set %s or run 'sqlagent login')", cfg.Provider, cfg.APIKeyEnv))
		return a, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	return newAgent(cfg, db, schemaText, llm), nil
}

func withDefaults(cfg Config) Config {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Logger == nil {
		cfg.Logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelWarn)
	}
	return cfg
}

// newAgent wires llm, the toolkit and the executor factory. A nil llm leaves
// the agent without the query checker.
func newAgent(cfg Config, db sqlexec.Database, schemaText string, llm llms.Model) *Agent {
	a := &Agent{
		cfg:    cfg,
		system: SystemMessage(schemaText, db.Dialect(), cfg.TopK),
	}
	a.newChain = a.executor
	if llm != nil {
		a.llm = zeroTemperature{Model: llm}
		a.tools = sqlexec.Toolkit(db, a.llm)
	} else {
		a.tools = sqlexec.Toolkit(db, nil)
	}
	return a
}

// Tools returns the tools the executor may call.
func (a *Agent) Tools() []tools.Tool { return a.tools }

// System returns the system prompt template.
func (a *Agent) System() string { return a.system }

// Invoke runs one turn. On success the question and answer are appended to history.
func (a *Agent) Invoke(ctx context.Context, input string, history schema.ChatMessageHistory) (Response, error) {
	if a.missingKey != nil {
		return Response{}, a.missingKey
	}

	out, err := chains.Call(ctx, a.newChain(history), map[string]any{inputKey: input})
	if err != nil {
		return Response{}, classify(err)
	}

	resp := Response{}
	if s, ok := out[outputKey].(string); ok {
		resp.Output = s
	}
	if steps, ok := out[intermediateStepsKey].([]schema.AgentStep); ok {
		resp.Steps = ConvertSteps(steps)
	}
	return resp, nil
}

// executor builds a fresh executor whose memory is bound to history.
func (a *Agent) executor(history schema.ChatMessageHistory) chains.Chain {
	var handler callbacks.Handler
	if a.cfg.Verbose {
		handler = &actionLogger{logger: a.cfg.Logger}
	}

	agentOpts := []agents.Option{
		agents.NewOpenAIOption().WithSystemMessage(a.system),
	}
	if handler != nil {
		agentOpts = append(agentOpts, agents.WithCallbacksHandler(handler))
	}
	fa := agents.NewOpenAIFunctionsAgent(a.llm, a.tools, agentOpts...)

	execOpts := []agents.Option{
		agents.WithMaxIterations(a.cfg.MaxIterations),
		agents.WithReturnIntermediateSteps(),
		agents.WithMemory(newMemory(history)),
		agents.WithParserErrorHandler(agents.NewParserErrorHandler(nil)),
	}
	if handler != nil {
		execOpts = append(execOpts, agents.WithCallbacksHandler(handler))
	}
	return agents.NewExecutor(fa, execOpts...)
}

func newMemory(history schema.ChatMessageHistory) *memory.ConversationBuffer {
	return memory.NewConversationBuffer(
		memory.WithChatHistory(history),
		memory.WithInputKey(inputKey),
		memory.WithOutputKey(outputKey),
	)
}

// ConvertSteps maps executor steps to a trace. Tool inputs that are JSON objects
// become structured inputs; anything else is kept as raw text.
func ConvertSteps(steps []schema.AgentStep) trace.Trace {
	out := make(trace.Trace, 0, len(steps))
	for _, s := range steps {
		out = append(out, trace.Step{
			Invocation: trace.Invocation{
				Tool:  s.Action.Tool,
				Input: trace.ParseToolInput(s.Action.ToolInput),
			},
			Observation: s.Observation,
		})
	}
	return out
}

// classify attaches a kind to errors coming out of the executor.
func classify(err error) error {
	if _, ok := apperrors.KindOf(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.AgentFailed, "interrupted", err)
	}
	if apperrors.Classify(err) == apperrors.ProviderAuth {
		return apperrors.Wrap(apperrors.ProviderAuth, "the LLM provider rejected the request", err)
	}
	if errors.Is(err, agents.ErrNotFinished) {
		return apperrors.Wrap(apperrors.AgentFailed, "agent stopped before reaching an answer", err)
	}
	return apperrors.Wrap(apperrors.AgentFailed, "agent failed", err)
}

// zeroTemperature pins sampling temperature to 0 on every generation.
type zeroTemperature struct {
	llms.Model
}

func (z zeroTemperature) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := append([]llms.CallOption{llms.WithTemperature(0)}, options...)
	return z.Model.GenerateContent(ctx, messages, opts...)
}
