package tui

import (
	"strings"
	"testing"

	"github.com/labdesk/labctl/pkg/domain"
)

func TestStatusStyleKnownStatus(t *testing.T) {
	for _, s := range domain.ReservationStatuses {
		t.Run(s.Label(), func(t *testing.T) {
			rendered := StatusStyle(s).Render(s.Label())
			if !strings.Contains(rendered, s.Label()) {
				t.Errorf("StatusStyle(%v).Render = %q, want to contain %q", s, rendered, s.Label())
			}
		})
	}
}

func TestStatusStyleUnknownFallback(t *testing.T) {
	rendered := StatusStyle(domain.ReservationStatus(42)).Render("odd")
	if !strings.Contains(rendered, "odd") {
		t.Errorf("StatusStyle fallback did not render text: %q", rendered)
	}
}

func TestLabStatusStyle(t *testing.T) {
	for _, s := range []domain.LabStatus{domain.LabInactive, domain.LabActive, domain.LabMaintenance, domain.LabStatus(9)} {
		rendered := LabStatusStyle(s).Render(s.Label())
		if !strings.Contains(rendered, s.Label()) {
			t.Errorf("LabStatusStyle(%d).Render = %q, want to contain %q", s, rendered, s.Label())
		}
	}
}

func TestRenderShimmerLogoKeepsLetters(t *testing.T) {
	for _, frame := range []int{0, 7, 100} {
		out := renderShimmerLogo(frame)
		for _, r := range "LABDESK" {
			if !strings.ContainsRune(out, r) {
				t.Errorf("frame %d: logo %q missing %q", frame, out, r)
			}
		}
	}
}

func TestHelpBarPairs(t *testing.T) {
	out := helpBar("j/k", "nav", "q", "quit", "dangling")
	for _, want := range []string{"j/k", "nav", "q", "quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("helpBar missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "dangling") {
		t.Errorf("helpBar rendered an unpaired key: %q", out)
	}
}
