// Package mime implements the mime classification policy used by
// `arg istype` clauses: guessing a content type from a path/URL
// extension, sniffing it from a raw buffer, and falling back to an HTTP
// HEAD request for URLs whose extension is unrecognized.
package mime

import (
	stdmime "mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// userAgent is the fixed User-Agent string used for HEAD lookups,
// matching the rest of the plumber's HTTP-backed operations.
const userAgent = "Mozilla/5.0 (Windows NT 6.3; rv:36.0) Gecko/20100101 Firefox/36.0"

// Classifier is the interface the matching engine consults for
// `arg istype` clauses. Tests inject a deterministic fake instead of this
// package's production implementation.
type Classifier interface {
	// GuessFromPath deterministically maps a file extension or URL path
	// suffix to a MIME type. No I/O is performed. The bool reports
	// whether a type was found.
	GuessFromPath(s string) (string, bool)

	// GuessFromBuffer sniffs a MIME type from content via magic bytes.
	GuessFromBuffer(data []byte) (string, bool)

	// HeadLookup issues an HTTP HEAD request and returns the
	// Content-Type header with any charset parameter stripped. It fails
	// silently (false, no error) on any HTTP/network/parse error.
	HeadLookup(url string) (string, bool)
}

// HTTPDoer is the narrow interface HeadLookup needs from an HTTP client,
// letting tests substitute a fake transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Production is the default Classifier, backed by gabriel-vasile/mimetype
// for content sniffing and net/http for HEAD lookups.
type Production struct {
	Client HTTPDoer

	// StrictContentLookup disables HeadLookup, matching the config key of
	// the same name: a message whose extension can't be resolved fails
	// `arg istype` instead of making a network request.
	StrictContentLookup bool
}

// New returns a Production classifier with a bounded-timeout HTTP client.
func New() *Production {
	return &Production{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// GuessFromPath uses the standard extension-to-MIME table; this is a
// narrow deterministic lookup that no content-sniffing library owns.
func (p *Production) GuessFromPath(s string) (string, bool) {
	ext := path.Ext(stripQuery(s))
	if ext == "" {
		return "", false
	}
	t := stdmime.TypeByExtension(ext)
	if t == "" {
		return "", false
	}
	return stripParams(t), true
}

// GuessFromBuffer sniffs content type via magic bytes.
func (p *Production) GuessFromBuffer(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	m := mimetype.Detect(data)
	if m == nil {
		return "", false
	}
	return stripParams(m.String()), true
}

// HeadLookup issues a HEAD request with the fixed user agent and returns
// the Content-Type header, charset parameter stripped. Any failure
// (network error, an HTTP 4xx/5xx status, missing header) yields
// (..., false) rather than an error: classification failure is never an
// error per the spec's taxonomy.
func (p *Production) HeadLookup(rawURL string) (string, bool) {
	if p.StrictContentLookup {
		return "", false
	}

	req, err := http.NewRequest(http.MethodHead, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", false
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return "", false
	}
	return stripParams(ct), true
}

func stripParams(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i != -1 {
		return strings.TrimSpace(contentType[:i])
	}
	return strings.TrimSpace(contentType)
}

func stripQuery(s string) string {
	if i := strings.IndexByte(s, '?'); i != -1 {
		return s[:i]
	}
	return s
}
