package publish

import (
	"strings"
	"testing"
)

func TestConvertMarkdownHeadingsAndParagraphs(t *testing.T) {
	got := ConvertMarkdown("## Setup\n\nFirst line.\nSecond line.")

	if !strings.Contains(got, `<!-- wp:heading {"level":2} -->`) {
		t.Fatalf("missing heading block comment:\n%s", got)
	}
	if !strings.Contains(got, "<h2>Setup</h2>") {
		t.Fatalf("missing heading element:\n%s", got)
	}
	if !strings.Contains(got, "<p>First line. Second line.</p>") {
		t.Fatalf("adjacent lines must join into one paragraph:\n%s", got)
	}
}

func TestConvertMarkdownLists(t *testing.T) {
	got := ConvertMarkdown("- beans\n- water\n\n1. grind\n2. brew")

	if !strings.Contains(got, "<ul><li>beans</li><li>water</li></ul>") {
		t.Fatalf("unordered list wrong:\n%s", got)
	}
	if !strings.Contains(got, `<!-- wp:list {"ordered":true} -->`) {
		t.Fatalf("ordered list missing attribute:\n%s", got)
	}
	if !strings.Contains(got, "<ol><li>grind</li><li>brew</li></ol>") {
		t.Fatalf("ordered list wrong:\n%s", got)
	}
}

func TestConvertMarkdownFencedCode(t *testing.T) {
	got := ConvertMarkdown("```\nif a < b {\n}\n```")

	if !strings.Contains(got, "<!-- wp:code -->") {
		t.Fatalf("missing code block comment:\n%s", got)
	}
	if !strings.Contains(got, "if a &lt; b {") {
		t.Fatalf("code content must be escaped verbatim:\n%s", got)
	}
}

func TestConvertMarkdownBlockquote(t *testing.T) {
	got := ConvertMarkdown("> stay grounded\n> and simple")

	if !strings.Contains(got, "<blockquote class=\"wp-block-quote\"><p>stay grounded and simple</p></blockquote>") {
		t.Fatalf("quote wrong:\n%s", got)
	}
}

func TestInlineMarkup(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"**bold** move", "<strong>bold</strong> move"},
		{"an *emphasis*", "an <em>emphasis</em>"},
		{"run `go env`", "run <code>go env</code>"},
		{"[docs](https://example.com)", `<a href="https://example.com">docs</a>`},
		{"<script>x</script>", "&lt;script&gt;x&lt;/script&gt;"},
	}
	for _, tc := range cases {
		if got := inlineMarkup(tc.in); got != tc.want {
			t.Errorf("inlineMarkup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Content Marketing", "content-marketing"},
		{"Café au Lait", "cafe-au-lait"},
		{"  spaced   out  ", "spaced-out"},
		{"C++ & Go!", "c-go"},
		{"already-slugged", "already-slugged"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
