// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package repl runs the interactive question loop: read a question, run one
// agent turn, print the generated SQL and answer, and append the exchange to
// the query log.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"sqlagent/cli/internal/agent"
	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/querylog"
	"sqlagent/cli/internal/session"
	"sqlagent/cli/internal/trace"
)

// Prompt is printed before every question.
const Prompt = "Ask a question: "

// Invoker runs one agent turn. *agent.Agent implements it.
type Invoker interface {
	Invoke(ctx context.Context, input string, history schema.ChatMessageHistory) (agent.Response, error)
}

// Outcome is the result of one turn: Answered or Failed.
type Outcome interface {
	isOutcome()
}

// Answered is a turn that produced an answer.
type Answered struct {
	SQL    string
	Answer string
	// LogErr is set when the answer could not be appended to the query log.
	LogErr error
}

// Failed is a turn that raised an error. Nothing is logged for it.
type Failed struct {
	Kind apperrors.Kind
	Err  error
}

func (Answered) isOutcome() {}
func (Failed) isOutcome()   {}

// Loop wires one agent, one session and one log file to a pair of streams.
type Loop struct {
	In        io.Reader
	Out       io.Writer
	Agent     Invoker
	Sessions  *session.Store
	SessionID string
	Log       *querylog.Writer
	// Wait wraps each agent call, e.g. to show a spinner. Optional.
	Wait func(run func())
}

// Run reads questions until "exit", "quit", end of input or ctx is cancelled.
// A failed turn is reported and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	lines, errc := l.readLines(ctx)

	for {
		fmt.Fprint(l.Out, "\n"+Prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.Out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(l.Out)
			select {
			case err := <-errc:
				return err
			default:
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsExit(line) {
			return nil
		}
		l.Turn(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// readLines feeds input lines to a channel so Run can also watch ctx while
// waiting at the prompt. The scanner error, if any, is sent before the
// channel closes.
func (l *Loop) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	scanner := bufio.NewScanner(l.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// IsExit reports whether line asks to leave the loop.
func IsExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Turn runs one question through the agent and prints the result.
func (l *Loop) Turn(ctx context.Context, question string) Outcome {
	id := l.SessionID
	if id == "" {
		id = session.DefaultID
	}
	history := l.Sessions.Get(id)

	var (
		resp agent.Response
		err  error
	)
	call := func() { resp, err = l.Agent.Invoke(ctx, question, history) }
	if l.Wait != nil {
		l.Wait(call)
	} else {
		call()
	}

	if err != nil {
		kind := apperrors.Classify(err)
		fmt.Fprintf(l.Out, "Error: %s\n", logging.Mask(err.Error()))
		if hint := Hint(kind); hint != "" {
			fmt.Fprintf(l.Out, "Hint: %s\n", hint)
		}
		return Failed{Kind: kind, Err: err}
	}

	sql := trace.ExtractSuccessfulQuery(resp.Steps)
	fmt.Fprintf(l.Out, "\nGenerated SQL: %s\n", sql)
	fmt.Fprintf(l.Out, "\nAnswer: %s\n", resp.Output)

	out := Answered{SQL: sql, Answer: resp.Output}
	if l.Log == nil {
		return out
	}
	if err := l.Log.Append(querylog.Record{Question: question, SQL: sql, Answer: resp.Output}); err != nil {
		out.LogErr = err
		fmt.Fprintf(l.Out, "\n%s\n", logging.PresentError("Could not write query log", err))
		return out
	}
	fmt.Fprintf(l.Out, "\n(Logged to %s)\n", l.Log.Path)
	return out
}

// Hint suggests a fix for a failed turn.
func Hint(kind apperrors.Kind) string {
	switch kind {
	case apperrors.ProviderAuth:
		return "check GROQ_API_KEY / OPENROUTER_API_KEY or run 'sqlagent login'"
	case apperrors.DatabaseConnectivity:
		return "the database is unreachable; run 'sqlagent connect' to test the connection"
	case apperrors.ConfigurationError:
		return "check the DB_* variables in your environment or .env file"
	case apperrors.AgentFailed:
		return "try rephrasing the question"
	}
	return ""
}
