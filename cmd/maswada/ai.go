package main

import (
	"context"
	"errors"
	"fmt"

	"maswada-backend/pkg/client"

	"github.com/spf13/cobra"
)

func newAICmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Summarize, rewrite or translate text",
		Long:  "Results are printed only; notes are never modified.",
	}
	cmd.AddCommand(
		newAIOpCmd(opts, "summarize", "Summarize a note or text", "", nil),
		newAIOpCmd(opts, "rewrite", "Rewrite a note or text in another style", "mode",
			func(ctx context.Context, c *client.Client, in client.AIInput, mode string) (string, error) {
				return c.Rewrite(ctx, in, mode)
			}),
		newAIOpCmd(opts, "translate", "Translate between English and Arabic", "target",
			func(ctx context.Context, c *client.Client, in client.AIInput, target string) (string, error) {
				return c.Translate(ctx, in, target)
			}),
	)
	return cmd
}

type aiCall func(ctx context.Context, c *client.Client, in client.AIInput, arg string) (string, error)

func newAIOpCmd(opts *rootOptions, name, short, argFlag string, call aiCall) *cobra.Command {
	var noteID, text, arg string
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noteID == "" && text == "" {
				return errors.New("either --note or --text is required")
			}
			in := client.AIInput{NoteID: noteID, Text: text}
			c := opts.client()

			var (
				result string
				err    error
			)
			if call == nil {
				result, err = c.Summarize(cmd.Context(), in)
			} else {
				result, err = call(cmd.Context(), c, in, arg)
			}
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"result": result})
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&noteID, "note", "", "id of the note to use")
	cmd.Flags().StringVar(&text, "text", "", "literal text to use")
	switch argFlag {
	case "mode":
		cmd.Flags().StringVar(&arg, "mode", "", "shorter, clearer, formal or casual")
		cmd.MarkFlagRequired("mode")
	case "target":
		cmd.Flags().StringVar(&arg, "target", "", "en or ar (detected when omitted)")
	}
	return cmd
}
