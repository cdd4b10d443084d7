package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var noSegments, noPinyin, noFlashcards, noQuizzes, noCache bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prepare <lessonID>",
		Short: "Build study artifacts for one lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.DefaultOptions()
			if noSegments {
				opts.SegmentText = false
			}
			if noPinyin {
				opts.IncludePinyin = false
			}
			if noFlashcards {
				opts.IncludeFlashcards = false
			}
			if noQuizzes {
				opts.IncludeQuizzes = false
			}
			if noCache {
				opts.CacheResult = false
			}

			return ctx.withService(cmd, func(svc *library.Service) error {
				prepared, err := svc.PrepareLesson(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.PrepareResponse{Artifact: prepared})
				}
				printPreparedLesson(cmd.OutOrStdout(), prepared)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noSegments, "no-segments", false, "Skip text segmentation")
	cmd.Flags().BoolVar(&noPinyin, "no-pinyin", false, "Skip pinyin annotation")
	cmd.Flags().BoolVar(&noFlashcards, "no-flashcards", false, "Skip flashcard generation")
	cmd.Flags().BoolVar(&noQuizzes, "no-quizzes", false, "Skip quiz generation")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not cache the prepared artifact")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full artifact as JSON")
	return cmd
}

func printPreparedLesson(out io.Writer, prepared pipeline.PreparedLesson) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(prepared.Title, colorize) {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintf(out, "Segments (%s): %d\n", prepared.SegmentedContent.Mode, len(prepared.SegmentedContent.Segments))
	for i, segment := range prepared.SegmentedContent.Segments {
		line := fmt.Sprintf("  %d. %s", i+1, segment.Text)
		if segment.Pinyin != "" {
			line += "  [" + segment.Pinyin + "]"
		}
		fmt.Fprintln(out, line)
	}

	if prepared.PinyinContent != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Pinyin:", prepared.PinyinContent)
	}

	if len(prepared.Flashcards) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flashcards:")
		rows := make([][]string, 0, len(prepared.Flashcards))
		for _, card := range prepared.Flashcards {
			rows = append(rows, []string{card.Front, card.Pinyin, card.Back})
		}
		fmt.Fprintln(out, renderTable([]string{"Front", "Pinyin", "Back"}, rows, nil))
	}

	if len(prepared.QuizQuestions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Quiz:")
		for i, question := range prepared.QuizQuestions {
			fmt.Fprintf(out, "  %d. [%s] %s\n", i+1, question.Type, question.Prompt)
			if len(question.Choices) > 0 {
				fmt.Fprintf(out, "     choices: %s\n", strings.Join(question.Choices, " / "))
			}
			fmt.Fprintf(out, "     answer: %s\n", question.Answer)
		}
	}

	fmt.Fprintf(out, "\nPrepared at %s\n", prepared.PreparedAt.Local().Format("2006-01-02 15:04:05"))
}
