package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/internal/release"
)

// versionCheckMsg carries the result of the background release check.
type versionCheckMsg struct {
	latestVersion string
	hasUpdate     bool
}

// checkVersion looks for a newer release without blocking startup.
// Development builds never check.
func checkVersion(url, current string) tea.Cmd {
	if current == "" || current == "dev" || url == "" {
		return nil
	}
	return func() tea.Msg {
		latest, err := release.Latest(context.Background(), url)
		if err != nil || !release.IsNewer(latest, current) {
			return versionCheckMsg{}
		}
		return versionCheckMsg{latestVersion: "v" + latest, hasUpdate: true}
	}
}
