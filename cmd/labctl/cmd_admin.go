package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/internal/fanout"
	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

// decideLimit caps concurrent approve/reject calls.
const decideLimit = 4

var errNotAdmin = errors.New("this command needs an administrator account")

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator console",
		Long: `Review reservations and manage users. The role check here only uses the
cached profile; the server enforces permissions.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, nil); err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			if !a.sess.IsAdmin() {
				return errNotAdmin
			}
			return nil
		},
	}
	cmd.AddCommand(
		newAdminPendingCmd(a),
		newAdminDecideCmd(a, "approve", "Approve pending reservations", (*client.Client).ApproveReservation),
		newAdminDecideCmd(a, "reject", "Reject pending reservations", (*client.Client).RejectReservation),
		newAdminUsersCmd(a),
		newAdminLabStatusCmd(a),
		newAdminBroadcastCmd(a),
	)
	return cmd
}

func newAdminPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List reservations waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.api().PendingReservations(cmd.Context())
			if err != nil {
				return err
			}
			return a.printReservations(list)
		},
	}
}

type decision func(c *client.Client, ctx context.Context, id int64, note string) error

func newAdminDecideCmd(a *app, verb, short string, decide decision) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   verb + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				n, err := parseID(arg)
				if err != nil {
					return err
				}
				ids[i] = n
			}
			c := a.api()
			fns := make([]fanout.Func[int64], len(ids))
			for i, resID := range ids {
				fns[i] = func(ctx context.Context) (int64, error) {
					return resID, decide(c, ctx, resID, note)
				}
			}
			results := fanout.SettleLimit(cmd.Context(), decideLimit, fns...)

			failed := 0
			for i, r := range results {
				if r.OK() {
					fmt.Fprintf(a.out, "%s #%d\n", accentStyle.Render(verb+"d"), ids[i]) //nolint:errcheck
					continue
				}
				failed++
				fmt.Fprintf(a.out, "%s #%d: %s\n", errorStyle.Render("failed"), ids[i], client.Message(r.Err)) //nolint:errcheck
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d reservations not %sd", failed, len(ids), verb)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note shown to the requester")
	return cmd
}

func newAdminUsersCmd(a *app) *cobra.Command {
	var (
		q        domain.UserQuery
		userType string
	)
	cmd := &cobra.Command{
		Use:   "users [keyword]",
		Short: "List or search users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Keyword = args[0]
			}
			switch userType {
			case "":
			case "admin":
				t := domain.UserTypeAdmin
				q.UserType = &t
			case "user":
				t := domain.UserTypeUser
				q.UserType = &t
			default:
				return fmt.Errorf("type must be admin or user, got %q", userType)
			}
			c, ctx := a.api(), cmd.Context()
			list := c.ListUsers
			if q.Keyword != "" {
				list = c.SearchUsers
			}
			users, err := list(ctx, q)
			if err != nil {
				return err
			}
			return a.render(users, func(w io.Writer) {
				rows := make([][]string, len(users))
				for i, u := range users {
					role := "user"
					if u.UserType == domain.UserTypeAdmin {
						role = "admin"
					}
					rows[i] = []string{id(u.ID), u.Username, u.RealName, u.Email, role, strconv.Itoa(u.Status)}
				}
				printTable(w, []string{"ID", "USERNAME", "NAME", "EMAIL", "ROLE", "STATUS"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&userType, "type", "", "admin or user")
	return cmd
}

func newAdminLabStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lab-status <lab-id> <status>",
		Short: "Open, close or put a laboratory under maintenance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labID, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := domain.ParseLabStatus(args[1])
			if err != nil {
				return err
			}
			if err := a.api().UpdateLaboratoryStatus(cmd.Context(), labID, st); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "lab #%d is now %s\n", labID, st.Label()) //nolint:errcheck
			return nil
		},
	}
}

func newAdminBroadcastCmd(a *app) *cobra.Command {
	var (
		batch domain.BatchMessage
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "broadcast [user-id]...",
		Short: "Send a system message to several users",
		Long: `Send one system message to every listed user, or to every user with --all.
All sends are attempted; the command fails if any of them failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("give either user ids or --all")
			}
			c, ctx := a.api(), cmd.Context()
			batch.ReceiverIDs = batch.ReceiverIDs[:0]
			for _, arg := range args {
				n, err := parseID(arg)
				if err != nil {
					return err
				}
				batch.ReceiverIDs = append(batch.ReceiverIDs, n)
			}
			if all {
				users, err := c.ListUsers(ctx, domain.UserQuery{})
				if err != nil {
					return err
				}
				for _, u := range users {
					batch.ReceiverIDs = append(batch.ReceiverIDs, u.ID)
				}
			}
			if err := validate.Struct(batch); err != nil {
				return err
			}
			if err := c.SendBatchMessages(ctx, batch); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s to %d users\n", accentStyle.Render("sent"), len(batch.ReceiverIDs)) //nolint:errcheck
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&batch.Title, "title", "", "message title")
	f.StringVar(&batch.Content, "content", "", "message body")
	f.BoolVar(&all, "all", false, "send to every user")
	return cmd
}
