package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/pkg/domain"
)

func newMessagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Read your inbox",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, nil); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}
	cmd.AddCommand(
		newMessagesListCmd(a),
		newMessagesReadCmd(a),
		newMessagesUnreadCmd(a),
		newMessagesMarkAllCmd(a),
	)
	return cmd
}

func messageRows(list []domain.Message) [][]string {
	rows := make([][]string, len(list))
	for i, m := range list {
		state := ""
		if !m.Read {
			state = "new"
		}
		if m.Priority >= domain.PriorityHigh {
			state += "!"
		}
		rows[i] = []string{id(m.ID), state, formatStamp(m.CreatedAt), domain.MessageTypeLabel(m.Type), m.Title}
	}
	return rows
}

var messageHeaders = []string{"ID", "", "SENT", "TYPE", "TITLE"}

func newMessagesListCmd(a *app) *cobra.Command {
	var (
		unread     bool
		page, size int
		msgType    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, userID := a.api(), cmd.Context(), a.sess.UserID()
			var (
				list []domain.Message
				err  error
			)
			switch {
			case unread:
				list, err = c.UnreadMessages(ctx, userID)
			case msgType != "":
				list, err = c.MessagesByType(ctx, userID, msgType)
			default:
				if size <= 0 {
					size = a.cfg.PageSize
				}
				list, err = c.MessagePage(ctx, userID, page, size)
			}
			if err != nil {
				return err
			}
			return a.render(list, func(w io.Writer) {
				printTable(w, messageHeaders, messageRows(list))
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&unread, "unread", false, "only unread messages")
	f.StringVar(&msgType, "type", "", "only messages of this type")
	f.IntVar(&page, "page", 1, "page number, from 1")
	f.IntVar(&size, "size", 0, "page size (default from config)")
	return cmd
}

func newMessagesReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Show a message and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgID, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, ctx, userID := a.api(), cmd.Context(), a.sess.UserID()
			m, err := c.GetMessage(ctx, userID, msgID)
			if err != nil {
				return err
			}
			if !m.Read {
				if err := c.MarkRead(ctx, userID, m.ID); err != nil {
					return err
				}
				m.Read = true
			}
			if a.jsonOut {
				return a.render(m, nil)
			}
			out, err := renderMarkdown(*m)
			if err != nil {
				out = m.Title + "\n\n" + m.Content + "\n"
			}
			fmt.Fprint(a.out, out) //nolint:errcheck
			return nil
		},
	}
}

func renderMarkdown(m domain.Message) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	md := fmt.Sprintf("# %s\n\n*%s · %s*\n\n%s", m.Title, domain.MessageTypeLabel(m.Type), formatStamp(m.CreatedAt), m.Content)
	return r.Render(md)
}

type unreadSummary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType,omitempty"`
}

func newMessagesUnreadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Count unread messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx, userID := a.api(), cmd.Context(), a.sess.UserID()
			total, err := c.UnreadCount(ctx, userID)
			if err != nil {
				return err
			}
			out := unreadSummary{Total: total}
			// The per-type breakdown is optional; older servers lack it.
			if byType, err := c.UnreadCountByTypes(ctx, userID); err == nil {
				out.ByType = byType
			}
			return a.render(out, func(w io.Writer) {
				badge := domain.UnreadBadge(total)
				if badge == "" {
					badge = "0"
				}
				fmt.Fprintln(w, accentStyle.Render(badge), "unread") //nolint:errcheck
				types := make([]string, 0, len(out.ByType))
				for t := range out.ByType {
					types = append(types, t)
				}
				sort.Strings(types)
				pairs := make([]string, 0, 2*len(types))
				for _, t := range types {
					pairs = append(pairs, domain.MessageTypeLabel(t), strconv.Itoa(out.ByType[t]))
				}
				printFields(w, pairs...)
			})
		},
	}
}

func newMessagesMarkAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-all",
		Short: "Mark every message read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api().MarkAllRead(cmd.Context(), a.sess.UserID()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "all messages marked read") //nolint:errcheck
			return nil
		},
	}
}
