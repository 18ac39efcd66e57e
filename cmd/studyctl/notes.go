package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studiora/backend/internal/model"
	"studiora/backend/internal/service"
)

func newNotesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage study notes",
	}
	cmd.AddCommand(
		newNotesListCmd(root),
		newNotesAddCmd(root),
		newNotesEditCmd(root),
		newNotesRemoveCmd(root),
		newNotesCategoriesCmd(root),
	)
	return cmd
}

func newNotesListCmd(root *rootOptions) *cobra.Command {
	var query, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, optionally searching title and content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			notes, apiErr := a.notes.List(cmd.Context(), localOwner, service.NoteFilter{Query: query, Category: category})
			if err := check(apiErr); err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
				return nil
			}
			for _, note := range notes {
				printNote(cmd, note)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	return cmd
}

func newNotesAddCmd(root *rootOptions) *cobra.Command {
	var content, category string

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			change, apiErr := a.notes.Add(cmd.Context(), localOwner, service.NoteInput{
				Title:    strings.Join(args, " "),
				Content:  content,
				Category: category,
			})
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			fmt.Fprintf(cmd.OutOrStdout(), "Note created: %s\n", change.Value.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "m", "", "note body")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	return cmd
}

func newNotesEditCmd(root *rootOptions) *cobra.Command {
	var title, content, category string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}

			var patch service.NotePatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("category") {
				patch.Category = &category
			}

			change, apiErr := a.notes.Update(cmd.Context(), localOwner, args[0], patch)
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			printNote(cmd, change.Value)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "m", "", "new body")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	return cmd
}

func newNotesRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			change, apiErr := a.notes.Delete(cmd.Context(), localOwner, args[0])
			if err := check(apiErr); err != nil {
				return err
			}
			warnUnsynced(cmd, change.Synced)
			if !change.Value {
				fmt.Fprintf(cmd.OutOrStdout(), "No note with id %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note deleted: %s\n", args[0])
			return nil
		},
	}
}

func newNotesCategoriesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List note categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.open(cmd)
			if err != nil {
				return err
			}
			categories, apiErr := a.notes.Categories(cmd.Context(), localOwner)
			if err := check(apiErr); err != nil {
				return err
			}
			for _, category := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), category)
			}
			return nil
		},
	}
}

func printNote(cmd *cobra.Command, note model.Note) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%s]  updated %s\n",
		note.ID, note.Title, note.Category, note.UpdatedAt.Local().Format("2006-01-02 15:04"))
}
