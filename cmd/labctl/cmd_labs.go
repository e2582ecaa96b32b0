package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/labdesk/labctl/pkg/domain"
)

func newLabsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labs",
		Short: "Browse laboratories",
	}
	cmd.AddCommand(newLabsListCmd(a), newLabsSearchCmd(a), newLabsShowCmd(a), newLabsAvailableCmd(a))
	return cmd
}

func (a *app) printLabs(labs []domain.Laboratory) error {
	return a.render(labs, func(w io.Writer) {
		printTable(w, labHeaders, labRows(labs))
	})
}

func newLabsListCmd(a *app) *cobra.Command {
	var labType, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List laboratories, optionally by type or status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx := a.api(), cmd.Context()
			var (
				labs []domain.Laboratory
				err  error
			)
			switch {
			case status != "":
				st, perr := domain.ParseLabStatus(status)
				if perr != nil {
					return perr
				}
				labs, err = c.ListLaboratoriesByStatus(ctx, st)
			case labType != "":
				labs, err = c.ListLaboratoriesByType(ctx, labType)
			default:
				labs, err = c.ListLaboratories(ctx)
			}
			if err != nil {
				return err
			}
			return a.printLabs(labs)
		},
	}
	cmd.Flags().StringVar(&labType, "type", "", "only laboratories of this type")
	cmd.Flags().StringVar(&status, "status", "", "only laboratories in this status (active, inactive, maintenance)")
	return cmd
}

func newLabsSearchCmd(a *app) *cobra.Command {
	var (
		q              domain.LabSearch
		status         string
		minCap, maxCap int
	)
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search laboratories by keyword, type, status or capacity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx := a.api(), cmd.Context()
			if minCap > 0 || maxCap > 0 {
				labs, err := c.LaboratoriesByCapacity(ctx, minCap, maxCap)
				if err != nil {
					return err
				}
				return a.printLabs(labs)
			}
			if len(args) == 1 {
				q.Keyword = args[0]
			}
			if status != "" {
				st, err := domain.ParseLabStatus(status)
				if err != nil {
					return err
				}
				q.Status = &st
			}
			labs, err := c.SearchLaboratories(ctx, q)
			if err != nil {
				return err
			}
			return a.printLabs(labs)
		},
	}
	cmd.Flags().StringVar(&q.Type, "type", "", "laboratory type")
	cmd.Flags().StringVar(&status, "status", "", "laboratory status")
	cmd.Flags().IntVar(&minCap, "min-capacity", 0, "smallest capacity")
	cmd.Flags().IntVar(&maxCap, "max-capacity", 0, "largest capacity")
	return cmd
}

type labDetail struct {
	Lab      *domain.Laboratory   `json:"lab"`
	Date     string               `json:"date,omitempty"`
	Schedule []domain.Reservation `json:"schedule,omitempty"`
}

func newLabsShowCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show <lab-id>",
		Short: "Show a laboratory and its schedule for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			labID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().Format(domain.DateLayout)
			}
			c := a.api()
			out := labDetail{Date: date}
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				lab, err := c.GetLaboratory(ctx, labID)
				out.Lab = lab
				return err
			})
			g.Go(func() error {
				list, err := c.LabSchedule(ctx, labID, date)
				out.Schedule = list
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return a.render(out, func(w io.Writer) {
				l := out.Lab
				fmt.Fprintln(w, accentStyle.Render(l.Name)+"  "+dimStyle.Render(l.Status.Label())) //nolint:errcheck
				printFields(w,
					"type", l.Type,
					"location", l.Location,
					"capacity", strconv.Itoa(l.Capacity),
					"equipment", l.Equipment,
					"about", l.Description,
				)
				fmt.Fprintln(w)                                        //nolint:errcheck
				fmt.Fprintln(w, dimStyle.Render("schedule for "+date)) //nolint:errcheck
				printTable(w, reservationHeaders, reservationRows(out.Schedule))
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "schedule date, yyyy-MM-dd (default today)")
	return cmd
}

func newLabsAvailableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List laboratories open for booking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			labs, err := a.api().AvailableLaboratories(cmd.Context())
			if err != nil {
				return err
			}
			return a.printLabs(labs)
		},
	}
}

func newSlotsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show bookable time slots",
	}
	cmd.AddCommand(newSlotsListCmd(a), newSlotsAvailableCmd(a))
	return cmd
}

func slotRows(slots []domain.TimeSlot) [][]string {
	rows := make([][]string, len(slots))
	for i, s := range slots {
		state := "free"
		switch {
		case !s.Enabled:
			state = "disabled"
		case s.Reserved:
			state = "taken"
		}
		rows[i] = []string{id(s.ID), s.Name, s.Range(), state}
	}
	return rows
}

var slotHeaders = []string{"ID", "NAME", "TIME", "STATE"}

func (a *app) printSlots(slots []domain.TimeSlot) error {
	return a.render(slots, func(w io.Writer) {
		printTable(w, slotHeaders, slotRows(slots))
	})
}

func newSlotsListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List enabled time slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, ctx := a.api(), cmd.Context()
			list := c.EnabledTimeSlots
			if all {
				list = c.ListTimeSlots
			}
			slots, err := list(ctx)
			if err != nil {
				return err
			}
			return a.printSlots(slots)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include disabled slots")
	return cmd
}

func newSlotsAvailableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available <lab-id> <date>",
		Short: "Show which slots of a laboratory are still free on a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labID, err := parseID(args[0])
			if err != nil {
				return err
			}
			slots, err := a.api().AvailableTimeSlots(cmd.Context(), labID, args[1])
			if err != nil {
				return err
			}
			return a.printSlots(slots)
		},
	}
}
