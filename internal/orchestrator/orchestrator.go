// Package orchestrator implements the top-level plumbing loop: evaluate
// each rule in program order, run the first one that matches, and stop.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mario-plumb/mario/internal/action"
	"github.com/mario-plumb/mario/internal/match"
	"github.com/mario-plumb/mario/internal/message"
	"github.com/mario-plumb/mario/internal/rules"
)

// Orchestrator walks a parsed Program against one message, dispatching
// the first matching rule's actions.
type Orchestrator struct {
	Engine     *match.Engine
	Dispatcher *action.Dispatcher
	Logger     *slog.Logger
}

// New returns an Orchestrator wired to engine and dispatcher.
func New(engine *match.Engine, dispatcher *action.Dispatcher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Engine: engine, Dispatcher: dispatcher, Logger: logger}
}

// Result describes the outcome of one plumbing run.
type Result struct {
	// Matched is true iff some rule's match clauses all succeeded.
	Matched bool
	// RuleName is the name of the rule that matched, empty if none did.
	RuleName string
}

// Plumb evaluates program's rules top to bottom against msg. Stops at
// the first rule whose match clauses all succeed, runs its actions, and
// returns. A rule match is permanent: a subsequent rule is never
// consulted even if the matched rule's action fails. If no rule
// matches, Plumb logs that fact and returns a zero Result.
func (o *Orchestrator) Plumb(goCtx context.Context, program *rules.Program, msg *message.Context) (Result, error) {
	for _, rule := range program.Rules {
		captures, matched, err := o.Engine.EvaluateRule(rule, msg)
		if err != nil {
			return Result{}, fmt.Errorf("evaluating rule %q: %w", rule.Name, err)
		}
		if !matched {
			continue
		}

		o.logf(slog.LevelInfo, "rule matched", "rule", rule.Name)

		if err := o.Dispatcher.Run(goCtx, rule.ActionClauses, msg, captures); err != nil {
			return Result{Matched: true, RuleName: rule.Name}, fmt.Errorf("running actions for rule %q: %w", rule.Name, err)
		}

		return Result{Matched: true, RuleName: rule.Name}, nil
	}

	o.logf(slog.LevelInfo, "no rule matched")
	return Result{}, nil
}

func (o *Orchestrator) logf(level slog.Level, msg string, args ...any) {
	if o.Logger == nil {
		return
	}
	o.Logger.Log(context.Background(), level, msg, args...)
}
