// ABOUTME: Tests for badge widgets
// ABOUTME: Verifies labels survive styling

package widgets

import (
	"strings"
	"testing"
)

func TestSessionBadge(t *testing.T) {
	tests := []struct {
		name        string
		placeholder bool
		want        string
	}{
		{"", false, "signed out"},
		{"Newsroom Admin", false, "Newsroom Admin"},
		{"Admin", true, "Admin (placeholder)"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			got := SessionBadge(tc.name, tc.placeholder)
			if !strings.Contains(got, tc.want) {
				t.Errorf("expected badge to contain %q, got %q", tc.want, got)
			}
		})
	}
}

func TestStatusIconIsNonEmpty(t *testing.T) {
	for _, level := range []StatusLevel{StatusOK, StatusWarning, StatusCritical, StatusInfo, StatusNeutral} {
		if StatusIcon(level) == "" {
			t.Errorf("expected an icon for level %d", level)
		}
	}
}
