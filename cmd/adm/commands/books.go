// Package commands provides CLI commands for the admin tool
package commands

import (
	"fmt"

	"studyapp/internal/observability"
	"studyapp/internal/store"

	"github.com/spf13/cobra"
)

// BookCommands returns the saved-book management commands
func BookCommands(library *store.Library, logger *observability.Logger) *cobra.Command {
	bookCmd := &cobra.Command{
		Use:   "books",
		Short: "Saved book management commands",
		Long: `Saved book management commands for the study assistant.

Available commands:
  list      - List saved books
  show      - Show one saved book's structure
  delete    - Delete a saved book`,
	}

	bookCmd.AddCommand(listBooksCmd(library))
	bookCmd.AddCommand(showBookCmd(library))
	bookCmd.AddCommand(deleteBookCmd(library, logger))

	return bookCmd
}

func listBooksCmd(library *store.Library) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved books",
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := library.ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Println("No saved books.")
				return nil
			}
			for _, b := range books {
				fmt.Printf("%s  %-40s  %d chapters, %d pages\n", b.ID, b.Name, len(b.Chapters), len(b.PageTexts))
			}
			return nil
		},
	}
}

func showBookCmd(library *store.Library) *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show one saved book's chapter and lesson structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := library.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d pages)\n", book.Name, len(book.PageTexts))
			for _, ch := range book.Chapters {
				fmt.Printf("  %s  pages %d-%d  (%d lessons)\n", ch.Title, ch.StartPage, ch.EndPage, len(ch.Lessons))
				for _, l := range ch.Lessons {
					fmt.Printf("    - %s  pages %d-%d\n", l.Title, l.StartPage, l.EndPage)
				}
			}
			return nil
		},
	}
}

func deleteBookCmd(library *store.Library, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a saved book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := library.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			logger.Info(cmd.Context(), "Deleted saved book", map[string]interface{}{"book_id": args[0]})
			fmt.Printf("Deleted book %s\n", args[0])
			return nil
		},
	}
}
