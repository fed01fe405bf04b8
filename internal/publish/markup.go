package publish

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// ConvertMarkdown turns a markdown body into the platform's block markup.
// Pure transform, no side effects. Supported constructs: ATX headings,
// paragraphs, unordered and ordered lists, fenced code blocks, blockquotes,
// and inline emphasis/links/code.
func ConvertMarkdown(md string) string {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")

	var blocks []string
	var paragraph []string
	var list []string
	listOrdered := false

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		text := inlineMarkup(strings.Join(paragraph, " "))
		blocks = append(blocks, fmt.Sprintf("<!-- wp:paragraph -->\n<p>%s</p>\n<!-- /wp:paragraph -->", text))
		paragraph = nil
	}
	flushList := func() {
		if len(list) == 0 {
			return
		}
		tag := "ul"
		open := "<!-- wp:list -->"
		if listOrdered {
			tag = "ol"
			open = `<!-- wp:list {"ordered":true} -->`
		}
		var b strings.Builder
		b.WriteString(open + "\n<" + tag + ">")
		for _, item := range list {
			b.WriteString("<li>" + inlineMarkup(item) + "</li>")
		}
		b.WriteString("</" + tag + ">\n<!-- /wp:list -->")
		blocks = append(blocks, b.String())
		list = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushParagraph()
			flushList()

		case strings.HasPrefix(trimmed, "```"):
			flushParagraph()
			flushList()
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			blocks = append(blocks, fmt.Sprintf(
				"<!-- wp:code -->\n<pre class=\"wp-block-code\"><code>%s</code></pre>\n<!-- /wp:code -->",
				html.EscapeString(strings.Join(code, "\n"))))

		case strings.HasPrefix(trimmed, "#"):
			flushParagraph()
			flushList()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' && level < 6 {
				level++
			}
			text := inlineMarkup(strings.TrimSpace(trimmed[level:]))
			blocks = append(blocks, fmt.Sprintf(
				"<!-- wp:heading {\"level\":%d} -->\n<h%d>%s</h%d>\n<!-- /wp:heading -->",
				level, level, text, level))

		case strings.HasPrefix(trimmed, "> "):
			flushParagraph()
			flushList()
			quote := []string{strings.TrimPrefix(trimmed, "> ")}
			for i+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i+1]), "> ") {
				i++
				quote = append(quote, strings.TrimPrefix(strings.TrimSpace(lines[i]), "> "))
			}
			blocks = append(blocks, fmt.Sprintf(
				"<!-- wp:quote -->\n<blockquote class=\"wp-block-quote\"><p>%s</p></blockquote>\n<!-- /wp:quote -->",
				inlineMarkup(strings.Join(quote, " "))))

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			if listOrdered {
				flushList()
			}
			listOrdered = false
			list = append(list, trimmed[2:])

		case isOrderedItem(trimmed):
			flushParagraph()
			if !listOrdered {
				flushList()
			}
			listOrdered = true
			list = append(list, trimmed[strings.Index(trimmed, ". ")+2:])

		default:
			flushList()
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()
	flushList()

	return strings.Join(blocks, "\n\n")
}

func isOrderedItem(line string) bool {
	dot := strings.Index(line, ". ")
	if dot <= 0 {
		return false
	}
	_, err := strconv.Atoi(line[:dot])
	return err == nil
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// inlineMarkup escapes raw HTML and rewrites inline markdown spans.
func inlineMarkup(text string) string {
	out := html.EscapeString(text)
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = linkRe.ReplaceAllString(out, `<a href="$2">$1</a>`)
	return out
}
