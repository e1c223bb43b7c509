package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tamgu/internal/render"

	"github.com/spf13/cobra"
)

// NewDocsCmd creates the docs command for managing saved worksheets
func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage saved worksheets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved worksheets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			docs := a.ws.Documents()
			if len(docs) == 0 {
				fmt.Fprintln(out, "저장된 활동지가 없습니다.")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%d\t%s\t%s\n", d.ID, d.Date, d.ArticleTitle)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved worksheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.ws.Document(id)
			if err != nil {
				return fmt.Errorf("document %d: %w", id, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n", doc.ArticleTitle, doc.Date)
			fmt.Fprint(out, render.AnswerTable(doc.Answers, render.DefaultTextWidth))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved worksheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ws.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
			return nil
		},
	})

	return cmd
}

// NewPrintCmd creates the print command
func NewPrintCmd() *cobra.Command {
	var (
		format string
		outDir string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "print <doc-id>",
		Short: "Render a saved worksheet for printing",
		Long: `Render a saved worksheet as Markdown, an HTML print page, or plain text.
Output goes to stdout unless --out names a directory or --save is set.

Examples:
  tamgu print 1709251200000
  tamgu print 1709251200000 --format html --out worksheets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.ws.Open(id); err != nil {
				return fmt.Errorf("document %d: %w", id, err)
			}
			ws, err := a.ws.Worksheet()
			if err != nil {
				return err
			}

			if outDir == "" && save {
				outDir = cfg.Output.Directory
			}
			path, err := printWorksheet(cmd, ws, strings.ToLower(format), outDir)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md, html or text")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write the worksheet into this directory instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "Write the worksheet into output.directory from the config")

	return cmd
}

// printWorksheet renders ws and returns the written path, or "" for stdout.
func printWorksheet(cmd *cobra.Command, ws render.Worksheet, format, outDir string) (string, error) {
	if format == "md" && outDir != "" {
		return render.WriteMarkdownFile(ws, outDir)
	}

	var (
		body string
		ext  string
		err  error
	)
	switch format {
	case "md", "markdown":
		body, ext = render.Markdown(ws), ".md"
	case "html":
		body, err = render.HTML(ws)
		ext = ".html"
	case "text", "txt":
		body, ext = render.Text(ws, render.DefaultTextWidth), ".txt"
	default:
		return "", fmt.Errorf("unknown format %q (want md, html or text)", format)
	}
	if err != nil {
		return "", err
	}

	if outDir == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), body)
		return "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("worksheet_%s_%s%s", ws.PrintedAt.Format("2006-01-02"), render.Slug(ws.Article.Title), ext)
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write worksheet: %w", err)
	}
	return path, nil
}

func parseDocumentID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}
