package application

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractSnippet(t *testing.T) {
	renderer := NewMarkdownRenderer("/images")
	long := strings.Repeat("word ", 60)
	accented := "a" + strings.Repeat("é", 250)

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "Single paragraph",
			content:  "Just some content here.",
			expected: "Just some content here.",
		},
		{
			name:     "Multi-line paragraph",
			content:  "First line of intro.\nSecond line of intro.\n\nSecond paragraph",
			expected: "First line of intro. Second line of intro.",
		},
		{
			name:     "Leading heading skipped",
			content:  "# Heading\nThe body.",
			expected: "The body.",
		},
		{
			name:     "Stops at list",
			content:  "Intro line\n- item one\n- item two",
			expected: "Intro line",
		},
		{
			name:     "Only a list",
			content:  "- item one\n- item two",
			expected: "",
		},
		{
			name:     "Empty",
			content:  "",
			expected: "",
		},
		{
			name:     "Markdown markup removed",
			content:  "Some **bold** and `code` with a [link](https://example.com).",
			expected: "Some bold and code with a link.",
		},
		{
			name:     "Image-only paragraph skipped",
			content:  "![cat](cat.png)\n\nCaption text",
			expected: "Caption text",
		},
		{
			name:     "Truncated at word boundary",
			content:  long,
			expected: strings.TrimSpace(strings.Repeat("word ", 40)[:199]) + "...",
		},
		{
			name:     "Short multi-byte text kept whole",
			content:  "a" + strings.Repeat("é", 150),
			expected: "a" + strings.Repeat("é", 150),
		},
		{
			name:     "Multi-byte text cut on rune boundary",
			content:  accented,
			expected: string([]rune(accented)[:snippetLength]) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render(tt.content)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if result.Snippet != tt.expected {
				t.Errorf("Snippet = %q, want %q", result.Snippet, tt.expected)
			}
			if !utf8.ValidString(result.Snippet) {
				t.Errorf("Snippet %q is not valid UTF-8", result.Snippet)
			}
		})
	}
}

func TestIsRelativeLink(t *testing.T) {
	tests := []struct {
		dest     string
		expected bool
	}{
		{"photo.jpg", true},
		{"./photo.jpg", true},
		{"../photo.jpg", true},
		{"/images/photo.jpg", true},
		{"//cdn.example.com/photo.jpg", false},
		{"https://example.com/photo.jpg", false},
		{"data:image/png;base64,AAAA", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			if got := isRelativeLink(tt.dest); got != tt.expected {
				t.Errorf("isRelativeLink(%q) = %v, want %v", tt.dest, got, tt.expected)
			}
		})
	}
}

func TestMarkdownRenderer_Render(t *testing.T) {
	renderer := NewMarkdownRenderer("/images/")

	tests := []struct {
		name      string
		content   string
		inHTML    []string
		notInHTML []string
		snippet   string
	}{
		{
			name:    "Basic formatting",
			content: "Some **bold** text",
			inHTML:  []string{"<strong>bold</strong>"},
			snippet: "Some bold text",
		},
		{
			name:    "Relative image rewritten",
			content: "Look\n\n![cat](uploads/cat.png)",
			inHTML:  []string{`src="/images/cat.png"`},
			snippet: "Look",
		},
		{
			name:      "Absolute image unchanged",
			content:   "![cat](https://example.com/cat.png)",
			inHTML:    []string{`src="https://example.com/cat.png"`},
			notInHTML: []string{"/images/"},
		},
		{
			name:      "Raw HTML dropped",
			content:   "Hello <script>alert(1)</script>",
			notInHTML: []string{"<script>"},
			snippet:   "Hello alert(1)",
		},
		{
			name:    "GFM task list",
			content: "- [x] done\n- [ ] todo",
			inHTML:  []string{`type="checkbox"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render(tt.content)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			for _, want := range tt.inHTML {
				if !strings.Contains(result.HTML, want) {
					t.Errorf("HTML %q does not contain %q", result.HTML, want)
				}
			}
			for _, unwanted := range tt.notInHTML {
				if strings.Contains(result.HTML, unwanted) {
					t.Errorf("HTML %q should not contain %q", result.HTML, unwanted)
				}
			}
			if result.Snippet != tt.snippet {
				t.Errorf("Snippet = %q, want %q", result.Snippet, tt.snippet)
			}
		})
	}
}
