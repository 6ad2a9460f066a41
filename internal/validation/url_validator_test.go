package validation

import (
	"testing"
)

func TestIsValidReference(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "watch URL",
			input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want:  true,
		},
		{
			name:  "short link",
			input: "https://youtu.be/dQw4w9WgXcQ",
			want:  true,
		},
		{
			name:  "shorts",
			input: "https://www.youtube.com/shorts/abc123XYZ_-",
			want:  true,
		},
		{
			name:  "embed",
			input: "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want:  true,
		},
		{
			name:  "playlist",
			input: "https://www.youtube.com/playlist?list=PL123",
			want:  true,
		},
		{
			name:  "channel",
			input: "https://www.youtube.com/channel/UC123abc",
			want:  true,
		},
		{
			name:  "handle",
			input: "https://www.youtube.com/@SomeChannel",
			want:  true,
		},
		{
			name:  "mobile host",
			input: "https://m.youtube.com/watch?v=dQw4w9WgXcQ",
			want:  true,
		},
		{
			name:  "no scheme",
			input: "youtube.com/watch?v=dQw4w9WgXcQ",
			want:  true,
		},
		{
			name:  "unrelated host",
			input: "https://example.com/video",
			want:  false,
		},
		{
			name:  "lookalike host",
			input: "https://notyoutube.com/watch?v=x",
			want:  false,
		},
		{
			name:  "ftp scheme",
			input: "ftp://youtube.com/watch?v=x",
			want:  false,
		},
		{
			name:  "empty string",
			input: "",
			want:  false,
		},
		{
			name:  "bare word",
			input: "youtube",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidReference(tt.input); got != tt.want {
				t.Errorf("IsValidReference(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	ref, err := ParseReference("https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.URL() != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("unexpected URL: %q", ref.URL())
	}

	if _, err := ParseReference("https://example.com/video"); err == nil {
		t.Error("expected error for non-YouTube URL, got nil")
	}
}
