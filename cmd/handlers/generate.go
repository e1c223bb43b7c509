package handlers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"tamgu/internal/core"
	"tamgu/internal/render"

	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Write a new article about a topic",
		Long: `Ask the AI to write a short educational article about a topic, pitched at
the chosen reading level.

Examples:
  tamgu generate 공룡
  tamgu generate "세종대왕과 한글" --difficulty hard`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := core.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			article, err := a.gateway.GenerateArticle(cmd.Context(), strings.Join(args, " "), d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", article.Title)
			fmt.Fprintf(out, "[%s] %s · 난이도 %s\n\n", article.Category, article.Source, d.Label())
			for _, p := range render.Paragraphs(article.Content) {
				fmt.Fprintln(out, strings.Join(render.Wrap(p, render.DefaultTextWidth), "\n"))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(core.DifficultyMedium), "Reading level: easy, medium or hard")
	return cmd
}

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Find the 5W1H answers in an article",
		Long: `Analyze an article and print the who, when, where, what, how and why answers
with the sentences that support them. Reads stdin when no file or "-" is given.

Examples:
  tamgu analyze article.txt
  cat article.txt | tamgu analyze`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := core.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.gateway.Analyze(cmd.Context(), text, d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, render.AnswerTable(result.Answers, render.DefaultTextWidth))
			fmt.Fprintln(out)
			for _, f := range core.AllFields() {
				for _, q := range result.Quotes.Get(f) {
					fmt.Fprintf(out, "%s  \"%s\"\n", f.Label(), q)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(core.DifficultyMedium), "Reading level: easy, medium or hard")
	return cmd
}

// NewKeywordsCmd creates the keywords command
func NewKeywordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "Suggest topics to read about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			keywords := a.gateway.SuggestKeywords(cmd.Context())
			if len(keywords) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "추천 키워드를 받지 못해 기본 키워드를 보여줍니다.")
				keywords = core.SuggestedKeywords()
			}
			for _, k := range keywords {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read article: %w", err)
	}
	return string(data), nil
}
