package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/internal/release"
)

type versionInfo struct {
	Version   string `json:"version"`
	Latest    string `json:"latest,omitempty"`
	HasUpdate bool   `json:"hasUpdate"`
}

func newVersionCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print the version and optionally check for a newer release",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{bareAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{Version: version}
			if check {
				if version == "dev" {
					fmt.Fprintln(a.errOut, dimStyle.Render("dev build, skipping the release check")) //nolint:errcheck
				} else {
					latest, err := release.Latest(cmd.Context(), a.releaseURL)
					if err != nil {
						return err
					}
					info.Latest = latest
					info.HasUpdate = release.IsNewer(latest, version)
				}
			}
			return a.render(info, func(w io.Writer) { printVersion(w, info) })
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "ask the release feed for a newer version")
	return cmd
}

func printVersion(w io.Writer, info versionInfo) {
	current := "v" + strings.TrimPrefix(info.Version, "v")
	if info.Version == "dev" {
		current = "dev"
	}
	switch {
	case info.HasUpdate:
		fmt.Fprintf(w, "labctl %s  %s  %s\n", dimStyle.Render(current), accentStyle.Render("→"), accentStyle.Render("v"+info.Latest)) //nolint:errcheck
		fmt.Fprintln(w, dimStyle.Render("a newer release is available"))                                                              //nolint:errcheck
	case info.Latest != "":
		fmt.Fprintf(w, "labctl %s  %s\n", accentStyle.Render(current), dimStyle.Render("current")) //nolint:errcheck
	default:
		fmt.Fprintln(w, "labctl "+current) //nolint:errcheck
	}
}
