package message

import "testing"

func TestNewURL_PopulatesNetlocAndNetpath(t *testing.T) {
	c, err := NewURL("https://example.com/path/to/thing")
	if err != nil {
		t.Fatalf("NewURL returned error: %v", err)
	}

	if got, _ := c.Get(FieldNetloc); got != "example.com" {
		t.Errorf("netloc = %q, want %q", got, "example.com")
	}
	if got, _ := c.Get(FieldNetpath); got != "/path/to/thing" {
		t.Errorf("netpath = %q, want %q", got, "/path/to/thing")
	}
	if c.Kind() != URL {
		t.Errorf("Kind() = %v, want URL", c.Kind())
	}
}

func TestNewRaw_StoresBytes(t *testing.T) {
	c := NewRaw([]byte("hello"))

	if c.Kind() != Raw {
		t.Errorf("Kind() = %v, want Raw", c.Kind())
	}
	if string(c.Bytes()) != "hello" {
		t.Errorf("Bytes() = %q, want %q", c.Bytes(), "hello")
	}
}

func TestContext_SetAndGet(t *testing.T) {
	c := NewRaw([]byte("x"))
	c.Set("greeting", "hi")

	got, ok := c.Get("greeting")
	if !ok || got != "hi" {
		t.Errorf("Get(greeting) = (%q, %v), want (%q, true)", got, ok, "hi")
	}

	if _, ok := c.Get("missing"); ok {
		t.Errorf("Get(missing) should report ok=false")
	}
}

func TestContext_Clone_IsIndependent(t *testing.T) {
	c := NewRaw([]byte("x"))
	c.Set("name", "original")

	clone := c.Clone()
	clone.Set("name", "changed")

	if got, _ := c.Get("name"); got != "original" {
		t.Errorf("original mutated via clone: got %q", got)
	}
	if got, _ := clone.Get("name"); got != "changed" {
		t.Errorf("clone.Get(name) = %q, want %q", got, "changed")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"url", URL, false},
		{"raw", Raw, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
