package template

import (
	"testing"

	"github.com/mario-plumb/mario/internal/message"
)

func TestExpand_FieldAndCapture(t *testing.T) {
	ctx := message.NewRaw([]byte("ignored"))
	ctx.Set("data", "https://paste.example/abc123")
	captures := message.Captures{"abc123"}

	got, err := Expand("xdg-open https://raw.example/{0}", ctx, captures)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	want := "xdg-open https://raw.example/abc123"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpand_MultipleFields(t *testing.T) {
	ctx := message.NewRaw([]byte("x"))
	ctx.Set("data", "foo")
	ctx.Set("filename", "/tmp/plumber-123")

	got, err := Expand("open {filename} for {data}", ctx, nil)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if got != "open /tmp/plumber-123 for foo" {
		t.Errorf("Expand() = %q", got)
	}
}

func TestExpand_MissingFieldIsBadReference(t *testing.T) {
	ctx := message.NewRaw([]byte("x"))

	_, err := Expand("plumb run echo {nonexistent}", ctx, nil)
	if err == nil {
		t.Fatal("expected BadReferenceError, got nil")
	}
	var badRef *BadReferenceError
	if !asBadReference(err, &badRef) {
		t.Fatalf("expected *BadReferenceError, got %T: %v", err, err)
	}
	if badRef.Placeholder != "nonexistent" {
		t.Errorf("Placeholder = %q, want %q", badRef.Placeholder, "nonexistent")
	}
}

func TestExpand_MissingCaptureIndexIsBadReference(t *testing.T) {
	ctx := message.NewRaw([]byte("x"))

	_, err := Expand("{5}", ctx, message.Captures{"only-one"})
	if err == nil {
		t.Fatal("expected error for out-of-range capture")
	}
}

func TestExpand_NoPlaceholders(t *testing.T) {
	ctx := message.NewRaw([]byte("x"))

	got, err := Expand("plumb run firefox", ctx, nil)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if got != "plumb run firefox" {
		t.Errorf("Expand() = %q", got)
	}
}

func TestListReferences(t *testing.T) {
	refs := ListReferences("{data} and {0} and {data}")
	want := []string{"data", "0", "data"}
	if len(refs) != len(want) {
		t.Fatalf("ListReferences() = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}
}

func asBadReference(err error, target **BadReferenceError) bool {
	br, ok := err.(*BadReferenceError)
	if ok {
		*target = br
	}
	return ok
}
