package countdown

import (
	"strconv"
	"strings"
)

// ///////////////////////////////////////////////
// Day-Count Renderer
// ///////////////////////////////////////////////

// Render draws a day count as glyph art in the given style:
//
//	"block"  — five-row block digits inside a code fence
//	"keycap" — emoji keycap digits
//	"plain"  — no art (the mood line stands alone)
//
// Unknown styles fall back to plain.
func Render(days int, style string) string {
	switch style {
	case "block":
		return renderBlock(days)
	case "keycap":
		return renderKeycap(days)
	default:
		return ""
	}
}

// blockRows is the number of rows in a block glyph.
const blockRows = 5

// blockDigits maps each digit to its five-row block glyph.
var blockDigits = map[rune][blockRows]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", "███", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", "  █", "  █", "  █"},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
}

// renderBlock draws the count as block digits in a code fence, which Discord
// renders in a monospaced font so rows line up.
func renderBlock(days int) string {
	digits := strconv.Itoa(days)

	rows := make([]string, blockRows)
	for i := range rows {
		parts := make([]string, 0, len(digits))
		for _, d := range digits {
			parts = append(parts, blockDigits[d][i])
		}
		rows[i] = strings.Join(parts, " ")
	}

	var b strings.Builder
	b.WriteString("```\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n```")
	return b.String()
}

// renderKeycap draws the count as emoji keycap digits (1️⃣2️⃣3️⃣).
func renderKeycap(days int) string {
	var b strings.Builder
	for _, d := range strconv.Itoa(days) {
		b.WriteRune(d)
		b.WriteString("️⃣")
	}
	return b.String()
}
