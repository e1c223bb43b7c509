package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"tamgu/internal/core"
)

// DateFormat is how dates appear on printed worksheets.
const DateFormat = "2006. 1. 2."

// blankLine is printed for unanswered questions so the sheet can be filled by hand.
const blankLine = "______________________________"

// Worksheet is everything needed to print one 5W1H activity sheet.
type Worksheet struct {
	Article    core.Article
	Answers    core.W1HAnswers
	Quotes     core.W1HQuotes
	Difficulty core.Difficulty
	PrintedAt  time.Time
}

// Markdown renders the worksheet as a CommonMark document: the article with
// evidence quotes in bold, then the six answers.
func Markdown(ws Worksheet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", oneLine(ws.Article.Title))

	if meta := metaLine(ws); meta != "" {
		fmt.Fprintf(&b, "> %s\n\n", meta)
	}

	quotes := ws.Quotes.All()
	for _, para := range Paragraphs(ws.Article.Content) {
		b.WriteString(Highlight(para, quotes))
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("## 육하원칙 활동지\n\n")

	for _, f := range core.AllFields() {
		fmt.Fprintf(&b, "### %s (%s)\n\n", f.Label(), strings.ToUpper(string(f)[:1])+string(f)[1:])
		answer := strings.TrimSpace(ws.Answers.Get(f))
		if answer == "" {
			fmt.Fprintf(&b, "*%s*\n\n%s\n\n", f.Hint(), blankLine)
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", oneLine(answer))
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*인쇄일: %s*\n", printedAt(ws).Format(DateFormat))

	return b.String()
}

// WriteMarkdownFile writes the Markdown rendering into outputDir and returns the file path.
func WriteMarkdownFile(ws Worksheet, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "worksheets" // Default output directory
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filename := fmt.Sprintf("worksheet_%s_%s.md", printedAt(ws).Format("2006-01-02"), Slug(ws.Article.Title))
	filePath := filepath.Join(outputDir, filename)

	if err := os.WriteFile(filePath, []byte(Markdown(ws)), 0644); err != nil {
		return "", fmt.Errorf("failed to write worksheet file %s: %w", filePath, err)
	}

	return filePath, nil
}

// Paragraphs splits article content on newlines, dropping blank lines.
func Paragraphs(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type span struct{ start, end int }

// Highlight wraps every occurrence of each quote in text with ** markers.
// Overlapping or adjacent matches are merged into one highlighted run.
func Highlight(text string, quotes []string) string {
	var spans []span
	for _, q := range quotes {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		for offset := 0; ; {
			i := strings.Index(text[offset:], q)
			if i < 0 {
				break
			}
			start := offset + i
			spans = append(spans, span{start, start + len(q)})
			offset = start + len(q)
		}
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, s := range merged {
		b.WriteString(text[prev:s.start])
		b.WriteString("**")
		b.WriteString(text[s.start:s.end])
		b.WriteString("**")
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String()
}

var slugUnsafe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug turns a title into a file-name-safe token. Hangul is kept.
func Slug(title string) string {
	s := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if r := []rune(s); len(r) > 40 {
		s = strings.Trim(string(r[:40]), "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

func metaLine(ws Worksheet) string {
	var parts []string
	for _, p := range []string{ws.Article.Category, ws.Article.Source} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if ws.Difficulty.Valid() {
		parts = append(parts, "난이도 "+ws.Difficulty.Label())
	}
	return strings.Join(parts, " · ")
}

func printedAt(ws Worksheet) time.Time {
	if ws.PrintedAt.IsZero() {
		return time.Now()
	}
	return ws.PrintedAt
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
