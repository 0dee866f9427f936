package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100

	progressBarWidth = 40
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintSection prints a box-drawing section title followed by a separator
func PrintSection(title string, width int) {
	fmt.Printf("\n┌─ %s\n", title)
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// ShortId abbreviates a hex object id or digest for tables
func ShortId(id string) string {
	if id == "" {
		return "none"
	}
	if len(id) > 14 {
		return id[:8] + "..." + id[len(id)-4:]
	}
	return id
}

// FormatIota renders a display amount with its unit
func FormatIota(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " IOTA"
}

// ProgressBar renders percent (0-100) as a fixed width bar
func ProgressBar(percent decimal.Decimal) string {
	if percent.IsNegative() {
		percent = decimal.Zero
	}
	if percent.GreaterThan(decimal.NewFromInt(100)) {
		percent = decimal.NewFromInt(100)
	}
	filled := int(percent.Mul(decimal.NewFromInt(progressBarWidth)).Div(decimal.NewFromInt(100)).IntPart())
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled) + "] " +
		percent.StringFixed(1) + "%"
}
