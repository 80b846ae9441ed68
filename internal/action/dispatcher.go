// Package action implements the two plumb actions a matched rule can
// carry: spawning a subprocess (`plumb run`) and downloading a URL to a
// temp file (`plumb download`).
package action

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/mario-plumb/mario/internal/message"
	"github.com/mario-plumb/mario/internal/rules"
	"github.com/mario-plumb/mario/internal/template"
)

// userAgent matches the fixed string used for the mime classifier's HEAD
// lookups, so downloads and classification present identically to the
// remote server.
const userAgent = "Mozilla/5.0 (Windows NT 6.3; rv:36.0) Gecko/20100101 Firefox/36.0"

// HTTPDoer is the narrow interface Dispatcher needs from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher runs a rule's action clauses once its match clauses have
// all succeeded.
type Dispatcher struct {
	Client HTTPDoer
	Logger *slog.Logger

	// ProgressEnabled gates the download progress bar; New sets it to
	// isatty.IsTerminal(os.Stderr.Fd()) without regard to verbosity.
	ProgressEnabled bool
	ProgressWriter  io.Writer
}

// New returns a Dispatcher with a bounded-timeout HTTP client and
// progress rendering enabled iff stderr is a TTY.
func New(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		Client:          &http.Client{Timeout: 5 * time.Minute},
		Logger:          logger,
		ProgressEnabled: isatty.IsTerminal(os.Stderr.Fd()),
		ProgressWriter:  os.Stderr,
	}
}

// Run executes rule's action clauses in order against ctx. Per spec, a
// rule's actions run to completion as a fixed sequence: there is no
// branching or conditional action. Execution stops at the first action
// that returns an error.
func (d *Dispatcher) Run(goCtx context.Context, clauses []rules.ActionClause, msg *message.Context, captures message.Captures) error {
	warnOrphanedDownload(clauses, d.Logger)

	for _, clause := range clauses {
		switch c := clause.(type) {
		case rules.ActionRun:
			if err := d.runCommand(goCtx, c, msg, captures); err != nil {
				return err
			}
		case rules.ActionDownload:
			if err := d.download(goCtx, c, msg, captures); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown action clause %T", clause)
		}
	}
	return nil
}

func (d *Dispatcher) runCommand(goCtx context.Context, c rules.ActionRun, msg *message.Context, captures message.Captures) error {
	expanded, err := template.Expand(c.Template, msg, captures)
	if err != nil {
		return fmt.Errorf("expanding plumb run argument: %w", err)
	}

	argv := strings.Fields(expanded)
	if len(argv) == 0 {
		return fmt.Errorf("plumb run expanded to an empty command")
	}

	for _, ref := range template.ListReferences(c.Template) {
		value, _ := template.Expand("{"+ref+"}", msg, captures)
		d.logf(slog.LevelDebug, "plumb run placeholder", "name", ref, "value", value)
	}
	d.logf(slog.LevelDebug, "plumb run", "command", expanded)

	cmd := exec.CommandContext(goCtx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %q: %w", argv[0], err)
	}
	return nil
}

func (d *Dispatcher) download(goCtx context.Context, c rules.ActionDownload, msg *message.Context, captures message.Captures) error {
	if msg.Kind() != message.URL {
		return fmt.Errorf("plumb download requires a url message, got %s", msg.Kind())
	}

	url, err := template.Expand(c.Template, msg, captures)
	if err != nil {
		return fmt.Errorf("expanding plumb download url: %w", err)
	}

	d.logf(slog.LevelDebug, "plumb download", "url", url)

	req, err := http.NewRequestWithContext(goCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("downloading %q: server returned %s", url, resp.Status)
	}

	f, err := os.CreateTemp("", "plumber-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer f.Close()

	body := io.Reader(resp.Body)
	if d.ProgressEnabled {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWriter(d.progressWriter()),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
		)
		body = io.TeeReader(resp.Body, bar)
	}

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("writing downloaded content to %q: %w", f.Name(), err)
	}

	msg.Set(message.FieldFilename, f.Name())
	d.logf(slog.LevelDebug, "download complete", "path", f.Name())
	return nil
}

func (d *Dispatcher) progressWriter() io.Writer {
	if d.ProgressWriter != nil {
		return d.ProgressWriter
	}
	return os.Stderr
}

func (d *Dispatcher) logf(level slog.Level, msg string, args ...any) {
	if d.Logger == nil {
		return
	}
	d.Logger.Log(context.Background(), level, msg, args...)
}

// warnOrphanedDownload logs a warning when a rule downloads a URL but
// never references {filename} in a later `plumb run`: the downloaded
// temp file would otherwise be silently abandoned.
func warnOrphanedDownload(clauses []rules.ActionClause, logger *slog.Logger) {
	if logger == nil {
		return
	}

	for i, clause := range clauses {
		if _, ok := clause.(rules.ActionDownload); !ok {
			continue
		}

		usedLater := false
		for _, later := range clauses[i+1:] {
			run, ok := later.(rules.ActionRun)
			if !ok {
				continue
			}
			for _, ref := range template.ListReferences(run.Template) {
				if ref == message.FieldFilename {
					usedLater = true
				}
			}
		}
		if !usedLater {
			logger.Warn("plumb download result is never referenced by a later plumb run",
				"field", message.FieldFilename)
		}
	}
}
