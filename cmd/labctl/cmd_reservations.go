package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/domain"
)

func summary(r domain.Reservation) string {
	lab := r.LabName
	if lab == "" {
		lab = "lab #" + id(r.LabID)
	}
	return fmt.Sprintf("#%d %s %s %s (%s)", r.ID, lab, r.ReserveDate, r.TimeSlot, r.Status.Label())
}

func newReserveCmd(a *app) *cobra.Command {
	var (
		req   domain.ReservationRequest
		labID string
	)
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Book a laboratory time slot",
		Long: `Book a laboratory. The date must fall within the next 30 days, the
people count is limited to the laboratory's capacity, and the slot is
checked for conflicts before the reservation is created.`,
		Example: "  labctl reserve --lab 3 --date 2026-03-12 --slot 10:00-12:00 --purpose \"titration lab\"",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			var err error
			if req.LabID, err = parseID(labID); err != nil {
				return err
			}
			now := time.Now()
			if !domain.InBookingWindow(req.ReserveDate, now) {
				start, end := domain.BookingWindow(now)
				return fmt.Errorf("pick a date from %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
			}

			c, ctx := a.api(), cmd.Context()
			lab, err := c.GetLaboratory(ctx, req.LabID)
			if err != nil {
				return err
			}
			if !lab.Available() {
				return fmt.Errorf("%s is %s and cannot be booked", lab.Name, lab.Status.Label())
			}
			if clamped := lab.ClampPeople(req.PeopleNum); clamped != req.PeopleNum {
				fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf("people limited to %d (lab capacity %d)", clamped, lab.Capacity))) //nolint:errcheck
				req.PeopleNum = clamped
			}
			req.LabName = lab.Name
			req.UserID = a.sess.UserID()
			if p, ok := a.sess.Profile(); ok {
				req.UserName = p.DisplayName()
			}
			if err := validate.Struct(req); err != nil {
				return err
			}

			res, err := c.CheckConflict(ctx, req.LabID, req.ReserveDate, req.TimeSlot)
			if err != nil {
				return err
			}
			if res.Conflict {
				reason := res.Message
				if reason == "" {
					reason = "the slot is already booked"
				}
				return errors.New(reason + ", pick another time")
			}

			created, err := c.CreateReservation(ctx, req)
			if err != nil {
				return err
			}
			return a.render(created, func(w io.Writer) {
				fmt.Fprintln(w, "reserved", accentStyle.Render(summary(*created))) //nolint:errcheck
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&labID, "lab", "", "laboratory id")
	f.StringVar(&req.ReserveDate, "date", "", "date, yyyy-MM-dd")
	f.StringVar(&req.TimeSlot, "slot", "", "time range, HH:mm-HH:mm")
	f.StringVar(&req.Purpose, "purpose", "", "what the laboratory is needed for")
	f.IntVar(&req.PeopleNum, "people", 1, "number of people")
	f.StringVar(&req.ExperimentName, "experiment", "", "experiment name")
	f.StringVar(&req.Equipment, "equipment", "", "equipment needed")
	f.StringVar(&req.Remark, "remark", "", "note for the approver")
	_ = cmd.MarkFlagRequired("lab")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func newReservationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res"},
		Short:   "Manage your reservations",
	}
	cmd.AddCommand(
		newReservationsMineCmd(a),
		newReservationsShowCmd(a),
		newReservationsCancelCmd(a),
		newReservationsCheckCmd(a),
	)
	return cmd
}

func (a *app) printReservations(list []domain.Reservation) error {
	return a.render(list, func(w io.Writer) {
		printTable(w, reservationHeaders, reservationRows(list))
	})
}

func parseStatus(s string) (*domain.ReservationStatus, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	st, err := domain.ParseReservationStatus(s)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func newReservationsMineCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			list, err := a.api().MyReservations(cmd.Context(), a.sess.UserID(), st)
			if err != nil {
				return err
			}
			return a.printReservations(list)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, approved, rejected, cancelled or completed")
	return cmd
}

func newReservationsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resID, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := a.api().GetReservation(cmd.Context(), resID)
			if err != nil {
				return err
			}
			return a.render(r, func(w io.Writer) {
				fmt.Fprintln(w, accentStyle.Render(summary(*r))) //nolint:errcheck
				people := ""
				if r.PeopleNum > 0 {
					people = strconv.Itoa(r.PeopleNum)
				}
				printFields(w,
					"user", r.UserName,
					"purpose", r.Purpose,
					"people", people,
					"experiment", r.ExperimentName,
					"equipment", r.Equipment,
					"remark", r.Remark,
					"approval", r.ApprovalNote,
					"feedback", r.Feedback,
					"created", formatStamp(r.CreatedAt),
				)
			})
		},
	}
}

func newReservationsCancelCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or approved reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resID, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, ctx := a.api(), cmd.Context()
			r, err := c.GetReservation(ctx, resID)
			if err != nil {
				return err
			}
			if !r.Status.Cancellable() {
				return fmt.Errorf("reservation #%d is %s and cannot be cancelled", r.ID, r.Status.Label())
			}
			if !yes {
				answer, err := a.ask(fmt.Sprintf("cancel %s? [y/N] ", summary(*r)))
				if err != nil {
					return err
				}
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					fmt.Fprintln(a.out, "kept") //nolint:errcheck
					return nil
				}
			}
			if err := c.CancelReservation(ctx, resID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "reservation #%d cancelled\n", resID) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newReservationsCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <lab-id> <date> <slot>",
		Short: "Check whether a slot is still free",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			labID, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.api().CheckConflict(cmd.Context(), labID, args[1], args[2])
			if err != nil {
				return err
			}
			return a.render(res, func(w io.Writer) {
				if !res.Conflict {
					fmt.Fprintln(w, accentStyle.Render("free")) //nolint:errcheck
					return
				}
				line := warnStyle.Render("taken")
				if res.Message != "" {
					line += " " + res.Message
				}
				fmt.Fprintln(w, line) //nolint:errcheck
			})
		},
	}
}
