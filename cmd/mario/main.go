// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements the mario CLI: a Plan-9-style message plumber
// that matches one message against a rules file and dispatches the
// first rule that matches.
//
// Usage:
//
//	mario [-v...] [--config FILE] [--rule FILE] [--explain] (--guess | KIND) MSG
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mario-plumb/mario/internal/action"
	"github.com/mario-plumb/mario/internal/config"
	"github.com/mario-plumb/mario/internal/errors"
	"github.com/mario-plumb/mario/internal/match"
	"github.com/mario-plumb/mario/internal/message"
	"github.com/mario-plumb/mario/internal/mime"
	"github.com/mario-plumb/mario/internal/orchestrator"
	"github.com/mario-plumb/mario/internal/rules"
	"github.com/mario-plumb/mario/internal/template"
	"github.com/mario-plumb/mario/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		verbose    int
		configPath string
		rulePath   string
		explain    bool
		noColor    bool
		guess      bool
		showVer    bool
	)

	flag.CountVarP(&verbose, "verbose", "v", "increase logging verbosity (repeatable)")
	flag.StringVar(&configPath, "config", "", "path to the INI config file (default: $XDG_CONFIG_HOME/mario/config)")
	flag.StringVar(&rulePath, "rule", "", "path to the rules file (overrides config's 'rules file')")
	flag.BoolVar(&explain, "explain", false, "parse the rules file and print the normalized program as YAML, then exit")
	flag.BoolVar(&noColor, "no-color", false, "disable colored diagnostics")
	flag.BoolVar(&guess, "guess", false, "infer the message kind from MSG instead of requiring KIND")
	flag.BoolVar(&showVer, "version", false, "print version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `mario - a Plan 9 style message plumber

Usage:
  mario [-v...] [--config FILE] [--rule FILE] [--explain] (--guess | KIND) MSG

KIND is exactly one of "url" or "raw"; --guess infers it from MSG instead.

Options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()
	ui.InitColors(noColor)

	if showVer {
		ui.Header("mario")
		fmt.Printf("%s %s\n", ui.Label("version:"), version)
		fmt.Printf("%s %s\n", ui.Label("commit:"), commit)
		fmt.Printf("%s %s\n", ui.Label("built:"), date)
		os.Exit(errors.ExitSuccess)
	}

	if guess {
		ui.Warning("--guess infers the message kind heuristically; pass KIND explicitly for deterministic behavior")
	}

	logger := newLogger(verbose)
	if verbose >= 1 {
		ui.Info("mario starting")
	}

	msgCtx, err := buildMessage(flag.Args(), guess)
	if err != nil {
		errors.FatalError(err, false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	cfg := config.Load(configPath, logger)
	if rulePath == "" {
		rulePath = cfg.RulesFile
	} else if verbose >= 1 {
		ui.Warningf("overriding configured rules file with --rule %s", ui.DimText(rulePath))
	}
	if verbose >= 1 {
		ui.Infof("using rules file %s", ui.DimText(rulePath))
	}

	program, err := loadProgram(rulePath)
	if err != nil {
		errors.FatalError(err, false)
	}

	if explain {
		ui.Header("Parsed Rules")
		fmt.Printf("%s %s\n", ui.Label("rules:"), ui.CountText(len(program.Rules)))
		for _, r := range program.Rules {
			ui.SubHeader(r.Name)
		}

		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		if err := enc.Encode(program.Describe()); err != nil {
			ui.Errorf("failed to render --explain output: %v", err)
			os.Exit(errors.ExitInternal)
		}
		ui.Successf("parsed %d rule(s) with no errors", len(program.Rules))
		os.Exit(errors.ExitSuccess)
	}

	classifier := mime.New()
	classifier.StrictContentLookup = cfg.StrictContentLookup
	engine := match.New(classifier)
	dispatcher := action.New(logger)
	orc := orchestrator.New(engine, dispatcher, logger)

	result, err := orc.Plumb(ctx, program, msgCtx)
	if err != nil {
		if ctx.Err() != nil {
			ui.Error("plumbing interrupted by signal")
			os.Exit(errors.ExitInternal)
		}

		var badRef *template.BadReferenceError
		if stderrors.As(err, &badRef) {
			errors.FatalError(errors.NewBadReferenceError("a rule referenced an unset field or capture", err.Error(),
				"check that every {name} in the rules file is set before use", err), false)
		}
		errors.FatalError(errors.NewActionError("a matched rule's action failed", err.Error(), "", err), false)
	}

	if !result.Matched {
		logger.Info("no rule matched this message")
		return
	}

	if verbose >= 1 {
		ui.Success("plumbing completed")
	}
}

func newLogger(verbose int) *slog.Logger {
	level := slog.Level(100) // effectively silent unless verbosity is requested
	switch {
	case verbose >= 3:
		level = slog.LevelDebug
	case verbose == 2:
		level = slog.LevelInfo
	case verbose == 1:
		level = slog.LevelWarn
	}

	var w io.Writer = os.Stderr
	if verbose == 0 {
		w = io.Discard
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func buildMessage(args []string, guess bool) (*message.Context, error) {
	if guess {
		if len(args) != 1 {
			return nil, errors.NewUsageError("invalid arguments", "--guess takes exactly one MSG argument", "mario --guess MSG")
		}
		return guessMessage(args[0])
	}

	if len(args) != 2 {
		return nil, errors.NewUsageError("invalid arguments", "expected KIND and MSG", "mario KIND MSG")
	}

	kind, err := message.ParseKind(args[0])
	if err != nil {
		return nil, errors.NewUsageError("invalid KIND", err.Error(), "KIND must be \"url\" or \"raw\"")
	}

	if kind == message.URL {
		ctx, err := message.NewURL(args[1])
		if err != nil {
			return nil, errors.NewUsageError("invalid url", err.Error(), "")
		}
		return ctx, nil
	}
	return message.NewRaw([]byte(args[1])), nil
}

func guessMessage(data string) (*message.Context, error) {
	if looksLikeURL(data) {
		return message.NewURL(data)
	}
	return message.NewRaw([]byte(data)), nil
}

func looksLikeURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

func loadProgram(path string) (*rules.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewRulesIOError("cannot read rules file", err.Error(),
			fmt.Sprintf("create a rules file at %s or pass one with --rule", path), err)
	}

	program, err := rules.Parse(string(data))
	if err != nil {
		cause := err.Error()
		if pe, ok := err.(*rules.ParseError); ok {
			if caret := pe.Caret(); caret != "" {
				cause = caret
			}
		}
		return nil, errors.NewParseError("rules file failed to parse", cause, "", err)
	}
	return program, nil
}
