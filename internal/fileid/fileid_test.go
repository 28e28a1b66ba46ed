package fileid

import "testing"

func TestContentHash(t *testing.T) {
	h1 := ContentHash("Clause 1. The policy covers hospitalisation.")
	h2 := ContentHash("Clause 1. The policy covers hospitalisation.")
	if h1 != h2 {
		t.Errorf("same text should give same hash: %q vs %q", h1, h2)
	}
	if len(h1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(h1))
	}
	if ContentHash("a") == ContentHash("b") {
		t.Error("different text should give different hashes")
	}
	if got := ContentHash(""); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("md5 of empty string = %s", got)
	}
}

func TestSourceID(t *testing.T) {
	tests := map[string]string{
		"/docs/policy.pdf":      "policy.pdf",
		"/docs/./sub/plan.docx": "plan.docx",
		"notes.txt":             "notes.txt",
	}
	for in, want := range tests {
		if got := SourceID(in); got != want {
			t.Errorf("SourceID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLSourceID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://blob.example.com/container/policy.pdf?sv=2023&sig=abc", "policy.pdf"},
		{"https://example.com/files/My%20Policy.docx", "My Policy.docx"},
		{"https://example.com/", BlobSourceID},
		{"https://example.com/download", BlobSourceID},
		{"://bad", BlobSourceID},
	}
	for _, tt := range tests {
		if got := URLSourceID(tt.in); got != tt.want {
			t.Errorf("URLSourceID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
