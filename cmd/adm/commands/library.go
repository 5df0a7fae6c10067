package commands

import (
	"errors"
	"fmt"

	"studyapp/internal/observability"
	"studyapp/internal/store"
	contextutils "studyapp/internal/utils"

	"github.com/spf13/cobra"
)

// SummaryCommands returns the saved-summary management commands
func SummaryCommands(library *store.Library, logger *observability.Logger) *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summaries",
		Short: "Saved summary management commands",
	}

	summaryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved summaries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := library.ListSummaries(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No saved summaries.")
				return nil
			}
			for _, s := range summaries {
				fmt.Printf("%s  %s / %s  (%d chars)\n", s.ID, s.BookName, s.ChapterTitle, len(s.SummaryText))
			}
			return nil
		},
	})

	summaryCmd.AddCommand(&cobra.Command{
		Use:   "delete <summary-id>",
		Short: "Delete a saved summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := library.DeleteSummary(cmd.Context(), args[0]); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Deleted saved summary", map[string]interface{}{"summary_id": args[0]})
			fmt.Printf("Deleted summary %s\n", args[0])
			return nil
		},
	})

	return summaryCmd
}

// TaskCommands returns the study-task management commands
func TaskCommands(library *store.Library, logger *observability.Logger) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Study task management commands",
	}

	taskCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List study tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := library.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No study tasks.")
				return nil
			}
			for _, t := range tasks {
				status := " "
				if t.Completed {
					status = "x"
				}
				fmt.Printf("[%s] %s  %-40s  priority=%s\n", status, t.ID, t.Title, t.Priority)
			}
			return nil
		},
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a study task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := library.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Deleted study task", map[string]interface{}{"task_id": args[0]})
			fmt.Printf("Deleted task %s\n", args[0])
			return nil
		},
	})

	return taskCmd
}

// SessionCommands returns the resume-session commands
func SessionCommands(library *store.Library, logger *observability.Logger) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Resume session commands",
	}

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active resume session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := library.LoadActiveBook(cmd.Context())
			if err != nil {
				if errors.Is(err, contextutils.ErrRecordNotFound) {
					fmt.Println("No active session.")
					return nil
				}
				return err
			}
			fmt.Printf("Active book %s  xp=%d  chapters=%d\n", state.ID, state.XP, len(state.Chapters))
			return nil
		},
	})

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the active resume session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := library.ClearActiveBook(cmd.Context()); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Cleared active session", nil)
			fmt.Println("Active session cleared.")
			return nil
		},
	})

	return sessionCmd
}
