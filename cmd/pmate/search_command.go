package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/catalog"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var difficulties []string
	var categories []string
	var vocabulary string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the lesson catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}

			filters := catalog.Filters{Categories: categories}
			for _, value := range difficulties {
				diff := lesson.Difficulty(strings.ToLower(strings.TrimSpace(value)))
				if !diff.Valid() {
					return fmt.Errorf("invalid difficulty %q (valid: %s)", value, strings.Join(difficultyNames(), ", "))
				}
				filters.Difficulties = append(filters.Difficulties, diff)
			}
			if strings.TrimSpace(vocabulary) != "" {
				has, err := strconv.ParseBool(vocabulary)
				if err != nil {
					return fmt.Errorf("invalid --vocabulary value %q (use true or false)", vocabulary)
				}
				filters.HasVocabulary = &has
			}

			return ctx.withService(cmd, func(svc *library.Service) error {
				matches := svc.SearchLessons(query, filters)
				if asJSON {
					return writeJSON(cmd, api.SearchResponse{Query: query, Lessons: api.FromLessons(matches)})
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "No lessons matched")
					return nil
				}
				fmt.Fprintln(out, renderLessonTable(matches))
				fmt.Fprintf(out, "%d lessons matched\n", len(matches))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&difficulties, "difficulty", "d", nil, "Filter by difficulty (repeatable)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Filter by category tag (repeatable)")
	cmd.Flags().StringVar(&vocabulary, "vocabulary", "", "Filter by vocabulary presence (true or false)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func difficultyNames() []string {
	levels := lesson.Difficulties()
	names := make([]string, 0, len(levels))
	for _, level := range levels {
		names = append(names, string(level))
	}
	return names
}
