package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/internal/browser"
	"github.com/labdesk/labctl/internal/fanout"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

// openFile shows a saved report. Tests replace it.
var openFile = browser.Open

func newReportCmd(a *app) *cobra.Command {
	var (
		q       client.ReportQuery
		labID   int64
		status  string
		outPath string
		open    bool
	)
	export := func(name string, fetch func(*client.Client) func(context.Context, client.ReportQuery) (*domain.Blob, error)) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: "Download the " + name + " spreadsheet",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := parseStatus(status)
				if err != nil {
					return err
				}
				q.Status, q.LabID = st, labID
				blob, err := fetch(a.api())(cmd.Context(), q)
				if err != nil {
					return err
				}
				path := outPath
				if path == "" {
					path = filepath.Base(blob.Filename)
				}
				if err := os.WriteFile(path, blob.Data, 0o600); err != nil {
					return fmt.Errorf("save report: %w", err)
				}
				fmt.Fprintf(a.out, "saved %s (%d bytes)\n", path, len(blob.Data)) //nolint:errcheck
				if open {
					if err := openFile(path); err != nil {
						fmt.Fprintln(a.errOut, warnStyle.Render("could not open "+path+": "+err.Error())) //nolint:errcheck
					}
				}
				return nil
			},
		}
	}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export reports and statistics",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&q.StartDate, "from", "", "first date, yyyy-MM-dd")
	pf.StringVar(&q.EndDate, "to", "", "last date, yyyy-MM-dd")
	pf.Int64Var(&labID, "lab", 0, "only this laboratory")
	pf.StringVar(&status, "status", "", "only reservations in this status")
	pf.StringVarP(&outPath, "output", "o", "", "file to write (default: name sent by the server)")
	pf.BoolVar(&open, "open", false, "open the file when done")

	cmd.AddCommand(
		export("reservations", func(c *client.Client) func(context.Context, client.ReportQuery) (*domain.Blob, error) {
			return c.ExportReservations
		}),
		export("statistics", func(c *client.Client) func(context.Context, client.ReportQuery) (*domain.Blob, error) {
			return c.ExportStatistics
		}),
		newReportSummaryCmd(a),
	)
	return cmd
}

// statsSection is one block of the summary. Err is set when that source failed.
type statsSection struct {
	Name  string            `json:"name"`
	Stats domain.Statistics `json:"stats,omitempty"`
	Err   string            `json:"error,omitempty"`
}

func newReportSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print reservation, laboratory, user and time slot counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.api()
			names := []string{"reservations", "laboratories", "users", "time slots"}
			results := fanout.Settle[domain.Statistics](cmd.Context(),
				func(ctx context.Context) (domain.Statistics, error) { return c.ReservationStatistics(ctx, 0) },
				c.LaboratoryStatistics,
				c.UserStatistics,
				c.TimeSlotStatistics,
			)
			sections := make([]statsSection, len(results))
			failed := 0
			for i, r := range results {
				sections[i] = statsSection{Name: names[i], Stats: r.Value}
				if !r.OK() {
					sections[i].Err = client.Message(r.Err)
					failed++
				}
			}
			if failed == len(results) {
				return results[0].Err
			}
			return a.render(sections, func(w io.Writer) {
				for _, s := range sections {
					fmt.Fprintln(w, accentStyle.Render(s.Name)) //nolint:errcheck
					if s.Err != "" {
						fmt.Fprintln(w, "  "+errorStyle.Render(s.Err)) //nolint:errcheck
						continue
					}
					printFields(w, statsPairs(s.Stats)...)
				}
			})
		},
	}
}

// statsPairs flattens the numeric counters of s in key order.
func statsPairs(s domain.Statistics) []string {
	keys := make([]string, 0, len(s))
	for k, v := range s {
		if _, ok := v.(float64); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "  "+k, fmt.Sprint(s.Int(k)))
	}
	return pairs
}

func newUploadCmd(a *app) *cobra.Command {
	var fileType string
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload avatars, laboratory images or documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidFileType(fileType) {
				return fmt.Errorf("type must be %s, %s or %s", domain.FileAvatar, domain.FileLab, domain.FileDocument)
			}
			ups := make([]client.Upload, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close() //nolint:errcheck
				ups = append(ups, client.Upload{Name: filepath.Base(path), Data: f})
			}

			c, ctx := a.api(), cmd.Context()
			var infos []domain.FileInfo
			if len(ups) == 1 {
				info, err := c.UploadFile(ctx, fileType, ups[0])
				if err != nil {
					return err
				}
				infos = []domain.FileInfo{*info}
			} else {
				var err error
				if infos, err = c.UploadBatch(ctx, fileType, ups...); err != nil {
					return err
				}
			}
			return a.render(infos, func(w io.Writer) {
				for _, info := range infos {
					fmt.Fprintln(w, info.URL) //nolint:errcheck
				}
			})
		},
	}
	cmd.Flags().StringVarP(&fileType, "type", "t", domain.FileDocument, "avatar, lab or document")
	return cmd
}
