package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyquiz/internal/config"
	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/quizgen"
	"github.com/abhisek/studyquiz/internal/study"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions from a notes directory or a single file",
	Example: `  studyquiz generate --dir ./notes --count 5
  studyquiz generate --file biology.pdf --count 10 --tier free`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		file, _ := cmd.Flags().GetString("file")
		if dir != "" && file != "" {
			return errors.New("use either --dir or --file, not both")
		}

		count, _ := cmd.Flags().GetInt("count")
		model, _ := cmd.Flags().GetString("model")
		tierFlag, _ := cmd.Flags().GetString("tier")
		override, _ := cmd.Flags().GetBool("override")
		asJSON, _ := cmd.Flags().GetBool("json")

		tier, err := llm.ParseTier(tierFlag)
		if err != nil {
			return err
		}

		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		req := study.Request{Count: count, Model: strings.TrimSpace(model), Tier: tier}

		var res *study.Result
		if file != "" {
			path, err := config.ExpandPath(file)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			res, err = d.svc.FromUpload(cmd.Context(), study.Upload{
				Filename: filepath.Base(path),
				Data:     data,
				Override: override,
			}, req)
			if err != nil {
				return err
			}
		} else {
			if dir == "" {
				dir = d.cfg.Server.NotesDir
			}
			path, err := config.ExpandPath(dir)
			if err != nil {
				return err
			}
			if res, err = d.svc.FromNotesDir(cmd.Context(), path, req); err != nil {
				return err
			}
		}

		return printResult(cmd.OutOrStdout(), res, asJSON)
	},
}

var moreCmd = &cobra.Command{
	Use:   "more <source>",
	Short: "Generate the next batch for a previously uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		tierFlag, _ := cmd.Flags().GetString("tier")
		asJSON, _ := cmd.Flags().GetBool("json")

		tier, err := llm.ParseTier(tierFlag)
		if err != nil {
			return err
		}

		d, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.svc.More(cmd.Context(), args[0], strings.TrimSpace(model), tier)
		var maxed *quizgen.MaxReachedError
		if errors.As(err, &maxed) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d/%d)\n", maxed.Error(), maxed.Total, maxed.Max)
			return nil
		}
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res, asJSON)
	},
}

type resultJSON struct {
	Questions      []quizgen.Question `json:"questions"`
	SourceFiles    []string           `json:"source_files"`
	Model          string             `json:"model"`
	ModelTier      llm.Tier           `json:"model_tier"`
	NotesDir       string             `json:"notes_dir,omitempty"`
	TotalForSource int                `json:"total_questions_for_source,omitempty"`
	MaxPerSource   int                `json:"max_questions_per_source,omitempty"`
}

func printResult(w io.Writer, res *study.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resultJSON{
			Questions:      res.Questions,
			SourceFiles:    res.SourceFiles,
			Model:          res.Model,
			ModelTier:      res.Tier,
			NotesDir:       res.NotesDir,
			TotalForSource: res.TotalForSource,
			MaxPerSource:   res.MaxPerSource,
		})
	}

	fmt.Fprintf(w, "Model: %s (%s)\n", res.Model, res.Tier)
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(res.SourceFiles, ", "))
	if res.MaxPerSource > 0 {
		fmt.Fprintf(w, "Stored for source: %d/%d\n", res.TotalForSource, res.MaxPerSource)
	}
	fmt.Fprintln(w)
	printQuestions(w, res.Questions)
	return nil
}

func printQuestions(w io.Writer, qs []quizgen.Question) {
	for i, q := range qs {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			mark := " "
			if j == q.CorrectIndex {
				mark = "*"
			}
			fmt.Fprintf(w, "   %s %c) %s\n", mark, 'A'+j, opt)
		}
		if q.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", q.Explanation)
		}
		fmt.Fprintln(w)
	}
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().String("tier", "pro", "Model tier: pro or free")
	cmd.Flags().String("model", "", "Model name (defaults to the tier's configured model)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
}

func init() {
	generateCmd.Flags().String("dir", "", "Notes directory (defaults to server.notes_dir)")
	generateCmd.Flags().String("file", "", "Single .txt or .pdf file, stored as an upload")
	generateCmd.Flags().IntP("count", "n", 5, "Number of questions (1-30)")
	generateCmd.Flags().Bool("override", false, "Regenerate for a file that was already uploaded")
	addGenerationFlags(generateCmd)
	addGenerationFlags(moreCmd)
}
