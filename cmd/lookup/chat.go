package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lookup-erp/lookup/pkg/chat"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the reporting assistant",
	}

	sendCmd := &cobra.Command{
		Use:   "send <question...>",
		Short: "Send a question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := chat.New(a.client, a.store, a.log)
			ex, err := svc.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ex.Answer)
			return nil
		},
	}

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous questions and answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if limit == 0 {
				limit = a.cfg.Chat.HistoryLimit
			}
			svc := chat.New(a.client, a.store, a.log)
			hist, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hist) == 0 {
				fmt.Fprintln(out, "No chat history.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tQUESTION\tANSWER")
			for _, ex := range hist {
				answer := ex.Answer
				if ex.Error != "" {
					answer = "error: " + ex.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ex.CreatedAt.Local().Format("2006-01-02T15:04:05"), oneLine(ex.Question), oneLine(answer))
			}
			return w.Flush()
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 0, "number of exchanges to show (default from config, -1 for all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the chat history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := chat.New(a.client, a.store, a.log).Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
			return nil
		},
	}

	cmd.AddCommand(sendCmd, historyCmd, clearCmd)
	return cmd
}

// oneLine flattens multi-line text for table output.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
