package activity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxEvents caps the number of rendered event blocks.
	DefaultMaxEvents = 10

	// DefaultExplorerTxURL prefixes transaction signatures in links.
	DefaultExplorerTxURL = "https://solscan.io/tx/"

	// DefaultTimeLayout matches the en-IN locale, e.g. "17/10/2026, 3:04:05 pm".
	DefaultTimeLayout = "2/1/2006, 3:04:05 pm"
)

// IndiaStandardTime is the default display zone. India has no daylight saving
// time, so a fixed offset renders the same as Asia/Kolkata.
var IndiaStandardTime = time.FixedZone("IST", 5*60*60+30*60)

// Renderer formats activity events into the summary report.
type Renderer struct {
	Location      *time.Location
	TimeLayout    string
	ExplorerTxURL string
	MaxEvents     int
}

// NewRenderer returns a Renderer with the default zone, layout, explorer and cap.
func NewRenderer() *Renderer {
	return &Renderer{
		Location:      IndiaStandardTime,
		TimeLayout:    DefaultTimeLayout,
		ExplorerTxURL: DefaultExplorerTxURL,
		MaxEvents:     DefaultMaxEvents,
	}
}

// Render builds the report for wallet over a window of hours. Events are
// rendered in the order given, at most MaxEvents of them, followed by a count
// of the ones left out.
func (r *Renderer) Render(events []Event, wallet string, hours float64) string {
	if len(events) == 0 {
		return NoActivityMessage(wallet, hours)
	}

	limit := r.maxEvents()
	shown := events
	if len(shown) > limit {
		shown = shown[:limit]
	}

	blocks := make([]string, 0, len(shown))
	for _, ev := range shown {
		blocks = append(blocks, r.RenderEvent(ev))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## 📊 Wallet `%s` activity summary (last %sh)\n\n", wallet, FormatHours(hours))
	sb.WriteString(strings.Join(blocks, "\n\n"))
	if rest := len(events) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "\n\n...and %d more.", rest)
	}
	return sb.String()
}

// RenderEvent formats a single event block.
func (r *Renderer) RenderEvent(ev Event) string {
	switch e := ev.(type) {
	case TransferEvent:
		line := fmt.Sprintf("Received %s %s ⬅️ %s", e.Amount, e.Token, e.Counterparty)
		if e.Direction == DirectionSent {
			line = fmt.Sprintf("Sent %s %s ➡️ %s", e.Amount, e.Token, e.Counterparty)
		}
		return fmt.Sprintf("🔄 **Transfer**\n• %s\n• Mint: `%s`\n• 🕐 %s\n• 🔗 [View Tx](%s)",
			line, e.Mint, r.FormatTime(e.Timestamp), r.txLink(e.Signature))
	case SwapEvent:
		return fmt.Sprintf("🔁 **Swap**\n• %s %s → %s %s\n• Program: %s\n• 🕐 %s\n• 🔗 [View Tx](%s)",
			e.FromAmount, e.FromToken, e.ToAmount, e.ToToken, e.Venue,
			r.FormatTime(e.Timestamp), r.txLink(e.Signature))
	default:
		return ""
	}
}

// FormatTime renders a unix timestamp in the renderer's zone and layout.
func (r *Renderer) FormatTime(unix int64) string {
	loc := r.Location
	if loc == nil {
		loc = IndiaStandardTime
	}
	layout := r.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return time.Unix(unix, 0).In(loc).Format(layout)
}

func (r *Renderer) txLink(signature string) string {
	base := r.ExplorerTxURL
	if base == "" {
		base = DefaultExplorerTxURL
	}
	return base + signature
}

func (r *Renderer) maxEvents() int {
	if r.MaxEvents <= 0 {
		return DefaultMaxEvents
	}
	return r.MaxEvents
}

// NoActivityMessage is the report for a wallet with nothing in the window.
func NoActivityMessage(wallet string, hours float64) string {
	return fmt.Sprintf("Wallet `%s` has not performed any token transfers in the last %s hour(s).",
		wallet, FormatHours(hours))
}

// FormatHours prints a window size without trailing zeros: 24, 1.5, -2.
func FormatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
