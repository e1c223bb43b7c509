package render

import (
	"strings"

	"tamgu/internal/core"

	"github.com/mattn/go-runewidth"
)

// DefaultTextWidth is used when Text is given a non-positive width.
const DefaultTextWidth = 72

// Text renders the worksheet for a terminal of the given display width. Korean
// characters take two columns, so wrapping and the answer table use display
// width rather than rune counts.
func Text(ws Worksheet, width int) string {
	if width <= 0 {
		width = DefaultTextWidth
	}
	rule := strings.Repeat("=", width)
	var b strings.Builder

	b.WriteString(rule + "\n")
	for _, line := range Wrap(oneLine(ws.Article.Title), width) {
		b.WriteString(line + "\n")
	}
	if meta := metaLine(ws); meta != "" {
		b.WriteString(runewidth.Truncate(meta, width, "…") + "\n")
	}
	b.WriteString(rule + "\n\n")

	for _, para := range Paragraphs(ws.Article.Content) {
		for _, line := range Wrap(para, width) {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("-", width) + "\n")
	b.WriteString(AnswerTable(ws.Answers, width))
	b.WriteString(strings.Repeat("-", width) + "\n")
	b.WriteString("인쇄일: " + printedAt(ws).Format(DateFormat) + "\n")

	return b.String()
}

// AnswerTable lays the six answers out as "label | answer" rows with the labels
// padded to a common display width. Long answers wrap under the answer column.
func AnswerTable(answers core.W1HAnswers, width int) string {
	labelWidth := 0
	for _, f := range core.AllFields() {
		if w := runewidth.StringWidth(f.Label()); w > labelWidth {
			labelWidth = w
		}
	}

	prefixWidth := labelWidth + 3 // " | "
	answerWidth := width - prefixWidth
	if answerWidth < 10 {
		answerWidth = 10
	}
	indent := strings.Repeat(" ", labelWidth) + " | "

	var b strings.Builder
	for _, f := range core.AllFields() {
		answer := oneLine(answers.Get(f))
		if answer == "" {
			answer = strings.Repeat("_", answerWidth)
		}
		for i, line := range Wrap(answer, answerWidth) {
			if i == 0 {
				b.WriteString(runewidth.FillRight(f.Label(), labelWidth) + " | ")
			} else {
				b.WriteString(indent)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Wrap breaks s into lines no wider than width display columns, preferring to
// break at spaces. Words wider than a line are split.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0

	flush := func() {
		lines = append(lines, strings.TrimRight(line.String(), " "))
		line.Reset()
		lineWidth = 0
	}

	for _, word := range strings.Fields(s) {
		ww := runewidth.StringWidth(word)
		sep := 0
		if lineWidth > 0 {
			sep = 1
		}
		if lineWidth+sep+ww <= width {
			if sep == 1 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
			lineWidth += sep + ww
			continue
		}
		if lineWidth > 0 {
			flush()
		}
		for runewidth.StringWidth(word) > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		line.WriteString(word)
		lineWidth = runewidth.StringWidth(word)
	}
	if lineWidth > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
