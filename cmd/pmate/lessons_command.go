package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

func newLessonsCommand(ctx *commandContext) *cobra.Command {
	var libraryID string
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lessons",
		Short: "List lessons in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *library.Service) error {
				if libraryID != "" {
					if _, ok := svc.LibraryByID(libraryID); !ok {
						return fmt.Errorf("unknown library %q", libraryID)
					}
				}

				var lessons []lesson.Lesson
				if category != "" {
					lessons = svc.LessonsByCategory(category)
					if libraryID != "" {
						kept := make([]lesson.Lesson, 0, len(lessons))
						for _, item := range lessons {
							if item.Metadata.Source == libraryID {
								kept = append(kept, item)
							}
						}
						lessons = kept
					}
				} else {
					lessons = svc.Lessons(libraryID)
				}

				if asJSON {
					return writeJSON(cmd, api.LessonListResponse{Lessons: api.FromLessons(lessons)})
				}
				if len(lessons) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No lessons found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderLessonTable(lessons))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&libraryID, "library", "l", "", "Only lessons from this library")
	cmd.Flags().StringVar(&category, "category", "", "Only lessons tagged with this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderLessonTable(lessons []lesson.Lesson) string {
	rows := make([][]string, 0, len(lessons))
	for _, item := range lessons {
		rows = append(rows, []string{
			item.ID,
			truncate(item.Title, 40),
			string(item.Metadata.Difficulty),
			joinTags(item.Metadata.Tags),
			fmt.Sprintf("%d", item.Metadata.CharacterCount),
			item.Metadata.Source,
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Difficulty", "Tags", "Chars", "Library"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
