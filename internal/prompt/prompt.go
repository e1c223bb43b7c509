package prompt

import (
	"fmt"
	"strings"

	"tamgu/internal/core"
)

// Kind selects which instruction the builder produces.
type Kind string

const (
	KindArticle  Kind = "article"  // Generate a reading passage on a topic
	KindAnalysis Kind = "analysis" // Extract 5W1H answers from a passage
	KindKeywords Kind = "keywords" // Suggest topics to explore
)

// MaxAnalysisRunes bounds how much article text is sent for analysis.
const MaxAnalysisRunes = 5000

// KeywordCount is the number of topic suggestions requested.
const KeywordCount = 6

// ListAvoidanceRule is always part of article instructions: the facts must be
// woven into prose, never listed as "label: value" lines.
const ListAvoidanceRule = "**절대로** '언제: O월 O일', '장소: OO'처럼 정보를 '항목: 내용' 형식으로 요약하거나 나열하지 마세요."

// LengthBand is a target character-count range for generated articles.
type LengthBand struct {
	Min int
	Max int
}

// String renders the band the way it appears in prompts, e.g. "500~800자".
func (b LengthBand) String() string {
	return fmt.Sprintf("%d~%d자", b.Min, b.Max)
}

// Contains reports whether n characters fall inside the band.
func (b LengthBand) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// DifficultyProfile describes the reader a difficulty level targets.
type DifficultyProfile struct {
	Audience string     // Target readers
	Style    string     // Vocabulary and sentence guidance
	Length   LengthBand // Article length; wider for harder levels
}

// Profile returns the reading profile for a difficulty. Unknown levels use medium.
func Profile(d core.Difficulty) DifficultyProfile {
	switch d {
	case core.DifficultyEasy:
		return DifficultyProfile{
			Audience: "초등학교 저학년(1~3학년)",
			Style:    "아주 쉬운 어휘, 짧은 문장, 친근한 동화체",
			Length:   LengthBand{Min: 300, Max: 500},
		}
	case core.DifficultyHard:
		return DifficultyProfile{
			Audience: "중학생",
			Style:    "논리적인 전개, 구체적인 설명, 다소 심화된 어휘 사용",
			Length:   LengthBand{Min: 700, Max: 1200},
		}
	}
	return DifficultyProfile{
		Audience: "초등학교 고학년",
		Style:    "명확한 문장 구조와 표준적인 어휘",
		Length:   LengthBand{Min: 500, Max: 800},
	}
}

// Build dispatches to the builder for kind. input is the topic for articles and
// the article text for analysis; it is ignored for keywords.
func Build(kind Kind, input string, d core.Difficulty) (string, error) {
	switch kind {
	case KindArticle:
		return Article(input, d), nil
	case KindAnalysis:
		return Analysis(input, d), nil
	case KindKeywords:
		return Keywords(), nil
	}
	return "", fmt.Errorf("unknown prompt kind %q", kind)
}

// Article builds the instruction for generating an educational passage on topic.
func Article(topic string, d core.Difficulty) string {
	p := Profile(d)
	var b strings.Builder

	fmt.Fprintf(&b, "'%s'에 대해 %s 학생들이 읽고 육하원칙(누가, 언제, 어디서, 무엇을, 어떻게, 왜)을 분석하기 좋은 교육용 지문을 작성해주세요.\n\n", strings.TrimSpace(topic), p.Audience)

	b.WriteString("[작성 가이드]\n")
	fmt.Fprintf(&b, "1. 대상 독자 및 난이도: %s 수준. (%s)\n", p.Audience, p.Style)
	b.WriteString("2. 구성 방식 (핵심):\n")
	fmt.Fprintf(&b, "   - %s\n", ListAvoidanceRule)
	b.WriteString("   - 사건이 일어난 순서나 인과 관계에 따라 자연스러운 줄글(이야기) 형태로 서술하세요.\n")
	b.WriteString("   - 누가, 언제, 어디서, 무엇을, 어떻게, 왜에 해당하는 여섯 가지 정보가 모두 이야기 속에 드러나야 합니다.\n")
	b.WriteString("   - 학생이 글을 꼼꼼히 읽어야만 육하원칙 요소를 발견할 수 있도록 문맥 속에 정보를 자연스럽게 녹여내세요.\n")
	b.WriteString("3. 내용 보강: 주제에 대한 정보가 빈약하다면 사실관계를 해치지 않는 선에서 배경 설명이나 묘사를 1~2문장 추가하세요.\n")
	b.WriteString("4. 어조: 친절하고 차분한 설명조('~합니다/했습니다')를 유지하세요.\n")
	b.WriteString("5. 형식:\n")
	b.WriteString("   - title: 주제를 잘 나타내는 매력적인 제목\n")
	b.WriteString("   - category: 주제에 맞는 분야 (예: 역사, 과학, 사회, 인물 등)\n")
	fmt.Fprintf(&b, "   - content: 본문, 분량 %s 내외, 문단은 줄바꿈으로 구분\n\n", p.Length)

	b.WriteString("응답은 title, category, content 세 필드를 가진 JSON 객체로만 반환하세요. Markdown 코드 블록 없이 순수 JSON만 반환하세요.")

	return b.String()
}

// Analysis builds the instruction for extracting 5W1H answers and supporting
// quotes from text. The text is cut to MaxAnalysisRunes.
func Analysis(text string, d core.Difficulty) string {
	p := Profile(d)
	var b strings.Builder

	b.WriteString("다음 텍스트를 분석하여 육하원칙(누가, 언제, 어디서, 무엇을, 어떻게, 왜)에 해당하는 내용을 추출하세요.\n\n")

	b.WriteString("[요구사항]\n")
	fmt.Fprintf(&b, "1. 'answers': who, when, where, what, how, why 각 항목에 대한 요약 답변을 한국어로 작성하세요. %s 학생이 이해하기 쉬운 1~2문장으로 작성하세요.\n", p.Audience)
	b.WriteString("2. 'quotes': 각 답변의 결정적인 근거가 된 본문의 문구(단어 또는 문장 일부)를 그대로 발췌하여 항목별 리스트로 만드세요.\n")
	b.WriteString("   - 발췌문은 본문 텍스트와 글자 하나까지 **정확히 일치**해야 합니다. 고치거나 요약하지 마세요.\n")
	b.WriteString("   - 근거가 여러 군데라면 여러 개를 담으세요.\n")
	fmt.Fprintf(&b, "3. 명시되지 않은 정보는 문맥을 통해 합리적으로 추론하되, 전혀 알 수 없는 경우 답변을 '%s'으로 쓰고 quotes는 빈 배열로 두세요.\n", core.Unknown)
	b.WriteString("4. 여섯 항목은 answers와 quotes 모두에 빠짐없이 포함되어야 합니다.\n\n")

	b.WriteString("분석할 텍스트:\n")
	b.WriteString(Truncate(text, MaxAnalysisRunes))

	return b.String()
}

// Keywords builds the instruction for suggesting topics to explore.
func Keywords() string {
	var b strings.Builder

	fmt.Fprintf(&b, "초등학생이 탐구 학습 주제로 삼기 좋은 흥미로운 검색 키워드를 정확히 %d개 추천해주세요.\n", KeywordCount)
	b.WriteString("역사, 과학, 사회, 시사, 인물 등 서로 다른 분야에서 고르게 선정하여 매번 새로운 느낌을 주도록 하세요.\n")
	b.WriteString("너무 뻔한 단어보다는 호기심을 자극하는 구체적인 소재가 좋습니다. 각 키워드는 짧은 명사구로 쓰세요.\n\n")
	b.WriteString("결과는 오직 JSON 문자열 배열 포맷([\"키워드1\", \"키워드2\", ...])으로만 출력하세요.")

	return b.String()
}

// Truncate cuts s to at most n runes without splitting a multi-byte character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
