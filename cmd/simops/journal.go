package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"simopsbot/internal/adapter/journal/jsonl"
	"simopsbot/internal/domain/journal"
)

func (c *cli) journalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journal <path>",
		Short: "Pretty-print a JSONL run journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			events, err := jsonl.ReadFile(args[0])
			if err != nil {
				return err
			}
			return printEvents(c.stdout, events)
		},
	}
}

func printEvents(w io.Writer, events []journal.Event) error {
	for _, e := range events {
		if _, err := fmt.Fprintf(w, "[step %02d] %s  id=%s\n", e.StepID, e.Kind, e.EventID); err != nil {
			return err
		}
		keys := make([]string, 0, len(e.Payload))
		for k := range e.Payload {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		var b strings.Builder
		for _, k := range keys {
			v, err := journal.Canonical(e.Payload[k])
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
