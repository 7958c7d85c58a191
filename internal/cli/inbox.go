package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appinbox "storefront/internal/app/inbox"
	domaininbox "storefront/internal/domain/inbox"
	"storefront/internal/domain/shared/apperr"
)

func newInboxCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read buyer conversations",
	}
	cmd.AddCommand(newInboxListCommand(opts), newInboxReadCommand(opts), newInboxUnreadCommand(opts))
	return cmd
}

func newInboxListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations with unread markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cred, err := opts.inbox(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			inbox, err := svc.FetchAll(cmd.Context(), cred)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tFROM\tWHEN\tMESSAGE")
			for _, p := range inbox.Previews {
				marker := " "
				if p.IsUnread {
					marker = "*"
				}
				when := ""
				if !p.Timestamp.IsZero() {
					when = p.Timestamp.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, p.ConversationID, p.SenderLabel, when, p.Excerpt)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d unread\n", inbox.UnreadShown)
			return nil
		},
	}
}

func newInboxReadCommand(opts *options) *cobra.Command {
	var peek bool
	cmd := &cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Print a conversation and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cred, err := opts.inbox(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id := domaininbox.ConversationID(args[0])
			var (
				thread domaininbox.Thread
				marked bool
			)
			if peek {
				thread, err = svc.FetchThread(cmd.Context(), cred, id)
			} else {
				var opened appinbox.OpenedThread
				opened, err = svc.OpenThread(cmd.Context(), cred, id)
				thread, marked = opened.Thread, opened.MarkedRead
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range thread.Conversation.Messages {
				who := m.Sender.Label()
				if m.Sender.IsUser(thread.ViewerUserID) {
					who = "you"
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Content)
			}
			if !peek && !marked {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: conversation could not be marked read")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&peek, "peek", false, "do not mark the conversation read")
	return cmd
}

func newInboxUnreadCommand(opts *options) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Print the unread conversation count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cred, err := opts.inbox(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !watch {
				count, err := svc.UnreadCount(cmd.Context(), cred)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, count)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancelCause(ctx)
			defer cancel(nil)

			poller := svc.NewUnreadPoller(cred, interval)
			poller.OnCount = func(count int) {
				fmt.Fprintf(out, "%s\t%d\n", time.Now().Format("15:04:05"), count)
			}
			poller.OnError = func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "poll failed: %s\n", apperr.Message(err))
				if apperr.IsAuth(err) {
					cancel(err)
				}
			}
			err = poller.Run(ctx)
			if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
				return cause
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", appinbox.DefaultPollInterval, "poll interval with --watch")
	return cmd
}
