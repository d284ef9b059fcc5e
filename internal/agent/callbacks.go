package agent

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/schema"
)

const maxLoggedObservation = 500

// actionLogger prints each tool call the executor makes at debug level.
type actionLogger struct {
	callbacks.SimpleHandler
	logger *pterm.Logger
}

var _ callbacks.Handler = (*actionLogger)(nil)

func (h *actionLogger) HandleAgentAction(_ context.Context, action schema.AgentAction) {
	h.logger.Debug("agent action", h.logger.Args("tool", action.Tool, "input", action.ToolInput))
}

func (h *actionLogger) HandleToolStart(_ context.Context, input string) {
	h.logger.Trace("tool start", h.logger.Args("input", input))
}

func (h *actionLogger) HandleToolEnd(_ context.Context, output string) {
	if len(output) > maxLoggedObservation {
		output = output[:maxLoggedObservation] + "..."
	}
	h.logger.Debug("tool result", h.logger.Args("output", output))
}

func (h *actionLogger) HandleAgentFinish(_ context.Context, finish schema.AgentFinish) {
	h.logger.Debug("agent finished", h.logger.Args("log", finish.Log))
}

func (h *actionLogger) HandleLLMError(_ context.Context, err error) {
	h.logger.Warn("model call failed", h.logger.Args("error", err.Error()))
}
