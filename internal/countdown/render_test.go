// render_test.go tests the day-count glyph renderers.

package countdown

import (
	"strings"
	"testing"
)

func TestRender_Block(t *testing.T) {
	got := Render(7, "block")

	if !strings.HasPrefix(got, "```\n") || !strings.HasSuffix(got, "\n```") {
		t.Fatalf("block render not fenced: %q", got)
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(got, "```\n"), "\n```")
	rows := strings.Split(inner, "\n")
	if len(rows) != blockRows {
		t.Fatalf("block render has %d rows, want %d", len(rows), blockRows)
	}
}

func TestRender_BlockMultiDigit(t *testing.T) {
	got := Render(42, "block")

	inner := strings.TrimSuffix(strings.TrimPrefix(got, "```\n"), "\n```")
	rows := strings.Split(inner, "\n")
	// Two 3-wide glyphs separated by a space.
	for i, row := range rows {
		if len([]rune(row)) != 7 {
			t.Errorf("row %d width = %d runes, want 7: %q", i, len([]rune(row)), row)
		}
	}
}

func TestRender_BlockRowsAligned(t *testing.T) {
	for days := 0; days <= 9; days++ {
		got := Render(days, "block")
		inner := strings.TrimSuffix(strings.TrimPrefix(got, "```\n"), "\n```")
		for _, row := range strings.Split(inner, "\n") {
			if len([]rune(row)) != 3 {
				t.Errorf("days=%d row width = %d runes, want 3: %q", days, len([]rune(row)), row)
			}
		}
	}
}

func TestRender_Keycap(t *testing.T) {
	got := Render(26, "keycap")
	want := "2️⃣6️⃣"
	if got != want {
		t.Errorf("Render(26, keycap) = %q, want %q", got, want)
	}
}

func TestRender_PlainAndUnknown(t *testing.T) {
	if got := Render(7, "plain"); got != "" {
		t.Errorf("Render(plain) = %q, want empty", got)
	}
	if got := Render(7, "something-else"); got != "" {
		t.Errorf("Render(unknown) = %q, want empty", got)
	}
}
