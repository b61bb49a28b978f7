package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"maswada-backend/pkg/client"
	"maswada-backend/pkg/client/autosave"

	"github.com/spf13/cobra"
)

const editHelp = `Lines read from stdin are appended to the note body and saved after a
quiet period. Commands:
  :title <text>  replace the title
  :save          save now
  :status        print the save status
  :q             save pending changes and quit`

func newEditCmd(opts *rootOptions) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Append to a note from stdin with autosave",
		Long:  editHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := client.NewStore(opts.client())
			defer store.Close()

			if err := store.Fetch(ctx); err != nil {
				return err
			}
			n, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("note %s not found", args[0])
			}

			status := cmd.ErrOrStderr()
			coord := autosave.NewCoordinator(store,
				autosave.WithDebounce(debounce),
				autosave.WithLogger(opts.logger()),
				autosave.WithOnChange(func(m autosave.Machine) {
					if m.UserEdited {
						fmt.Fprintf(status, "[%s]\n", describe(m, time.Now()))
					}
				}),
			)
			defer coord.Close()

			draft := autosave.Draft{Title: n.Title, Content: n.Content}
			coord.Load(n.ID, draft)

			if err := runEditor(cmd.InOrStdin(), cmd.OutOrStdout(), coord, &draft); err != nil {
				return err
			}
			return flush(ctx, coord)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", autosave.DefaultDebounce, "quiet period before saving")
	return cmd
}

func runEditor(in io.Reader, out io.Writer, coord *autosave.Coordinator, draft *autosave.Draft) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == ":q":
			return nil
		case line == ":save":
			coord.SaveNow()
		case line == ":status":
			fmt.Fprintln(out, describe(coord.Snapshot(), time.Now()))
		case strings.HasPrefix(line, ":title "):
			draft.Title = strings.TrimPrefix(line, ":title ")
			coord.Edit(*draft)
		default:
			if draft.Content != "" {
				draft.Content += "\n"
			}
			draft.Content += line
			coord.Edit(*draft)
		}
	}
	return scanner.Err()
}

// flush saves pending edits and waits for the last save to land.
func flush(ctx context.Context, coord *autosave.Coordinator) error {
	if m := coord.Snapshot(); m.State == autosave.Dirty || m.State == autosave.SaveFailed {
		coord.SaveNow()
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		m := coord.Snapshot()
		switch m.State {
		case autosave.SaveFailed:
			return fmt.Errorf("save failed: %w", m.Err)
		case autosave.Saving, autosave.Dirty:
		default:
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func describe(m autosave.Machine, now time.Time) string {
	switch m.State {
	case autosave.Saved:
		return "saved " + autosave.SinceLastSaved(now, m.LastSaved)
	case autosave.SaveFailed:
		return fmt.Sprintf("save failed: %v", m.Err)
	default:
		return m.State.String()
	}
}
