package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tamgu/internal/config"
	"tamgu/internal/llm"
)

const savedDocs = `[{"id":1709251200000,"date":"2024. 3. 1.","articleTitle":"훈민정음 탄생 이야기","answers":{"who":"세종대왕","when":"1443년","where":"","what":"","how":"","why":""}}]`

// setup writes a config pointing at a temporary data directory and makes
// commands use gen. It returns the config path and the data directory.
func setup(t *testing.T, gen llm.Generator) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	configPath := filepath.Join(dir, "tamgu.yaml")
	content := "app:\n  data_dir: " + dataDir + "\n" +
		"storage:\n  backend: file\n  key: docs\n" +
		"output:\n  directory: " + filepath.Join(dir, "out") + "\n" +
		"logging:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	orig := newGenerator
	newGenerator = func(context.Context, *config.Config) (llm.Generator, error) {
		return gen, nil
	}
	t.Cleanup(func() {
		newGenerator = orig
		cfg = nil
		cfgFile = ""
	})
	return configPath, dataDir
}

func seedDocs(t *testing.T, dataDir string) {
	t.Helper()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "docs.json"), []byte(savedDocs), 0644); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	fake := llm.NewFake(`{"title":"공룡의 비밀","category":"과학","content":"공룡은 아주 오래전에 살았습니다.\n화석으로 그 모습을 알 수 있습니다."}`)
	configPath, _ := setup(t, fake)

	out, err := run(t, configPath, "", "generate", "공룡", "--difficulty", "easy")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, want := range []string{"공룡의 비밀", "[과학]", "난이도 쉬움", "화석으로"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output should contain %q:\n%s", want, out)
		}
	}
	if !strings.Contains(fake.Requests()[0].Prompt, "초등학교 저학년") {
		t.Error("Easy difficulty should reach the prompt")
	}
}

func TestGenerateRejectsUnknownDifficulty(t *testing.T) {
	fake := llm.NewFake()
	configPath, _ := setup(t, fake)

	if _, err := run(t, configPath, "", "generate", "공룡", "--difficulty", "expert"); err == nil {
		t.Fatal("Unknown difficulty should fail")
	}
	if fake.Calls() != 0 {
		t.Error("AI should not be called")
	}
}

func TestGenerateWithoutCredentials(t *testing.T) {
	configPath, _ := setup(t, nil)
	newGenerator = func(context.Context, *config.Config) (llm.Generator, error) {
		return nil, &llm.ConfigError{Provider: "gemini", Msg: "API key is missing"}
	}

	_, err := run(t, configPath, "", "generate", "공룡")
	if !llm.IsConfigError(err) {
		t.Fatalf("Expected a configuration error, got %v", err)
	}
}

func TestAnalyzeCommandReadsStdin(t *testing.T) {
	fake := llm.NewFake(`{
  "answers": {"who": "세종대왕", "when": "1443년", "where": "", "what": "훈민정음", "how": "", "why": ""},
  "quotes": {"who": ["세종대왕은"], "when": ["1443년"], "where": [], "what": [], "how": [], "why": []}
}`)
	configPath, _ := setup(t, fake)

	out, err := run(t, configPath, "1443년 세종대왕은 훈민정음을 만들었습니다.", "analyze")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{"세종대왕", "1443년", "알 수 없음", `"세종대왕은"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Output should contain %q:\n%s", want, out)
		}
	}
}

func TestKeywordsFallsBackToSuggestions(t *testing.T) {
	configPath, _ := setup(t, llm.NewFake("not json"))

	out, err := run(t, configPath, "", "keywords")
	if err != nil {
		t.Fatalf("keywords failed: %v", err)
	}
	if !strings.Contains(out, "기본 키워드") {
		t.Errorf("Output should explain the fallback:\n%s", out)
	}
}

func TestDocsCommands(t *testing.T) {
	configPath, dataDir := setup(t, llm.NewFake())

	out, err := run(t, configPath, "", "docs", "list")
	if err != nil {
		t.Fatalf("docs list failed: %v", err)
	}
	if !strings.Contains(out, "저장된 활동지가 없습니다") {
		t.Errorf("Empty archive expected:\n%s", out)
	}

	seedDocs(t, dataDir)

	out, err = run(t, configPath, "", "docs", "list")
	if err != nil {
		t.Fatalf("docs list failed: %v", err)
	}
	if !strings.Contains(out, "1709251200000") || !strings.Contains(out, "훈민정음 탄생 이야기") {
		t.Errorf("List should show the saved document:\n%s", out)
	}

	out, err = run(t, configPath, "", "docs", "show", "1709251200000")
	if err != nil {
		t.Fatalf("docs show failed: %v", err)
	}
	if !strings.Contains(out, "세종대왕") {
		t.Errorf("Show should print the answers:\n%s", out)
	}

	if _, err := run(t, configPath, "", "docs", "show", "42"); err == nil {
		t.Error("Unknown id should fail")
	}
	if _, err := run(t, configPath, "", "docs", "show", "abc"); err == nil {
		t.Error("Non-numeric id should fail")
	}

	if _, err := run(t, configPath, "", "docs", "delete", "1709251200000"); err != nil {
		t.Fatalf("docs delete failed: %v", err)
	}
	out, _ = run(t, configPath, "", "docs", "list")
	if !strings.Contains(out, "저장된 활동지가 없습니다") {
		t.Errorf("Deleted document should be gone:\n%s", out)
	}
}

func TestPrintCommand(t *testing.T) {
	configPath, dataDir := setup(t, llm.NewFake())
	seedDocs(t, dataDir)

	out, err := run(t, configPath, "", "print", "1709251200000")
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	for _, want := range []string{"# 훈민정음 탄생 이야기", "## 육하원칙 활동지", "세종대왕"} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown should contain %q:\n%s", want, out)
		}
	}

	outDir := t.TempDir()
	out, err = run(t, configPath, "", "print", "1709251200000", "--format", "html", "--out", outDir)
	if err != nil {
		t.Fatalf("print html failed: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "worksheet_*_훈민정음-탄생-이야기.html"))
	if len(matches) != 1 {
		t.Fatalf("Expected one HTML file, got %v (output %q)", matches, out)
	}

	if _, err := run(t, configPath, "", "print", "1709251200000", "--format", "pdf"); err == nil {
		t.Error("Unknown format should fail")
	}
}
