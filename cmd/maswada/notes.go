package main

import (
	"errors"
	"fmt"
	"io"

	"maswada-backend/pkg/client"
	"maswada-backend/pkg/textdir"

	"github.com/spf13/cobra"
)

func newNotesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List, read and change notes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your notes, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				notes, err := opts.client().ListNotes(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), notes)
				}
				for _, n := range notes {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", n.ID, n.UpdatedAt.Format("2006-01-02 15:04"), n.Title)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := opts.client().GetNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printNote(cmd.OutOrStdout(), n, opts.jsonOut)
			},
		},
		newNoteCreateCmd(opts),
		newNoteUpdateCmd(opts),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client().DeleteNote(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newNoteCreateCmd(opts *rootOptions) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := opts.client().CreateNote(cmd.Context(), client.CreateNoteInput{Title: title, Content: content})
			if err != nil {
				return err
			}
			return printNote(cmd.OutOrStdout(), n, opts.jsonOut)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&content, "content", "", "note body")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newNoteUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		title, content, summary string
		clearSummary            bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change some fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in client.UpdateNoteInput
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("content") {
				in.Content = &content
			}
			if flags.Changed("summary") {
				in.Summary = &summary
			}
			in.ClearSummary = clearSummary
			if in.Summary != nil && in.ClearSummary {
				return errors.New("--summary and --clear-summary are mutually exclusive")
			}

			n, err := opts.client().UpdateNote(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return printNote(cmd.OutOrStdout(), n, opts.jsonOut)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body")
	cmd.Flags().StringVar(&summary, "summary", "", "store a summary")
	cmd.Flags().BoolVar(&clearSummary, "clear-summary", false, "remove the stored summary")
	return cmd
}

func printNote(w io.Writer, n *client.Note, asJSON bool) error {
	if asJSON {
		return writeJSON(w, n)
	}
	fmt.Fprintf(w, "id:       %s\n", n.ID)
	fmt.Fprintf(w, "title:    %s (%s)\n", n.Title, textdir.Detect(n.Title))
	fmt.Fprintf(w, "updated:  %s\n", n.UpdatedAt.Format("2006-01-02 15:04:05"))
	if n.Summary != nil {
		fmt.Fprintf(w, "summary:  %s\n", *n.Summary)
	}
	fmt.Fprintf(w, "content (%s):\n%s\n", textdir.Detect(n.Content), n.Content)
	return nil
}
