package mime

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeDoer struct {
	resp *http.Response
	err  error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	return f.resp, f.err
}

func TestGuessFromPath(t *testing.T) {
	p := &Production{}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://example.com/foo.png", "image/png", true},
		{"/tmp/report.pdf?download=1", "application/pdf", true},
		{"https://example.com/no-extension", "", false},
	}

	for _, tt := range tests {
		got, ok := p.GuessFromPath(tt.in)
		if ok != tt.wantOK {
			t.Errorf("GuessFromPath(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("GuessFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGuessFromBuffer_PNG(t *testing.T) {
	p := &Production{}
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

	got, ok := p.GuessFromBuffer(pngHeader)
	if !ok {
		t.Fatal("GuessFromBuffer should detect a PNG header")
	}
	if got != "image/png" {
		t.Errorf("GuessFromBuffer() = %q, want image/png", got)
	}
}

func TestGuessFromBuffer_Empty(t *testing.T) {
	p := &Production{}
	if _, ok := p.GuessFromBuffer(nil); ok {
		t.Error("GuessFromBuffer(nil) should fail")
	}
}

func TestHeadLookup_StripsCharset(t *testing.T) {
	p := &Production{Client: &fakeDoer{
		resp: &http.Response{
			StatusCode: 200,
			Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
			Body:       io.NopCloser(strings.NewReader("")),
		},
	}}

	got, ok := p.HeadLookup("https://example.com")
	if !ok {
		t.Fatal("HeadLookup should succeed")
	}
	if got != "text/html" {
		t.Errorf("HeadLookup() = %q, want text/html", got)
	}
}

func TestHeadLookup_FailsSilentlyOnError(t *testing.T) {
	p := &Production{Client: &fakeDoer{err: errConnRefused{}}}

	_, ok := p.HeadLookup("https://example.com")
	if ok {
		t.Error("HeadLookup should fail silently on transport error")
	}
}

type errConnRefused struct{}

func (errConnRefused) Error() string { return "connection refused" }

func TestHeadLookup_StrictModeSkipsRequest(t *testing.T) {
	p := &Production{
		Client:              &fakeDoer{err: errConnRefused{}},
		StrictContentLookup: true,
	}

	if _, ok := p.HeadLookup("https://example.com"); ok {
		t.Error("HeadLookup should fail when StrictContentLookup is set")
	}
}
