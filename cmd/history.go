package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored question collections and wrong answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		source = strings.TrimSpace(source)

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if source == "" {
			qc, err := s.QuestionRepo().Collections(ctx)
			if err != nil {
				return fmt.Errorf("list question collections: %w", err)
			}
			ec, err := s.WrongAnswerRepo().Collections(ctx)
			if err != nil {
				return fmt.Errorf("list error collections: %w", err)
			}
			if len(qc) == 0 && len(ec) == 0 {
				fmt.Fprintln(out, "No history yet.")
				return nil
			}

			rows := make([][]string, 0, len(qc))
			for _, c := range qc {
				rows = append(rows, []string{c.SourceFile, strconv.Itoa(c.QuestionCount), c.DateCreated})
			}
			fmt.Fprintln(out, "Generated questions")
			fmt.Fprintln(out, renderTable([]string{"Source", "Questions", "Created"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))

			rows = rows[:0]
			for _, c := range ec {
				rows = append(rows, []string{c.SourceFile, strconv.Itoa(c.WrongCount), c.DateUploaded})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Wrong answers")
			fmt.Fprintln(out, renderTable([]string{"Source", "Wrong", "Uploaded"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		}

		qs, err := s.QuestionRepo().ListBySource(ctx, source, limit)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		wrong, err := s.WrongAnswerRepo().List(ctx, source, limit)
		if err != nil {
			return fmt.Errorf("list wrong answers: %w", err)
		}

		rows := make([][]string, 0, len(qs))
		for _, q := range qs {
			answer := ""
			if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
				answer = q.Options[q.CorrectIndex]
			}
			rows = append(rows, []string{
				strconv.FormatInt(q.ID, 10), truncate(q.Question, 60), truncate(answer, 30), q.Model, q.CreatedAt,
			})
		}
		fmt.Fprintf(out, "Generated questions for %s (%d)\n", source, len(qs))
		fmt.Fprintln(out, renderTable([]string{"ID", "Question", "Answer", "Model", "Created"}, rows,
			[]columnAlignment{alignRight}))

		rows = rows[:0]
		for _, w := range wrong {
			picked, correct := "", ""
			if w.SelectedIndex >= 0 && w.SelectedIndex < len(w.Options) {
				picked = w.Options[w.SelectedIndex]
			}
			if w.CorrectIndex >= 0 && w.CorrectIndex < len(w.Options) {
				correct = w.Options[w.CorrectIndex]
			}
			rows = append(rows, []string{
				strconv.FormatInt(w.ID, 10), truncate(w.Question, 60), truncate(picked, 24), truncate(correct, 24), w.CreatedAt,
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Wrong answers for %s (%d)\n", source, len(wrong))
		fmt.Fprintln(out, renderTable([]string{"ID", "Question", "Picked", "Correct", "When"}, rows,
			[]columnAlignment{alignRight}))
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("source", "s", "", "Show the questions and wrong answers of one source file")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum rows per table")
}
