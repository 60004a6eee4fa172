package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"lnswap/pkg/flow"
	"lnswap/pkg/types"
)

// terminalObserver renders flow progress with a spinner and colored messages
type terminalObserver struct {
	flow.NopObserver
	mu      sync.Mutex
	spinner *spinner.Spinner
	quiet   bool
}

func newTerminalObserver(quiet bool) *terminalObserver {
	return &terminalObserver{
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		quiet:   quiet,
	}
}

func (o *terminalObserver) StateChanged(_ string, s flow.State) {
	if o.quiet {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case s == flow.Polling:
		o.spinner.Suffix = " Waiting for the order to complete (checking every 15s)..."
		o.spinner.Restart()
	case s.Terminal():
		o.spinner.Stop()
	case s.Loading():
		o.spinner.Suffix = " " + capitalize(s.String()) + "..."
		o.spinner.Restart()
	}
}

func (o *terminalObserver) ProviderUnavailable(_, reason string) {
	o.stop()
	color.Red("\nNo Lightning wallet available: %s", reason)
	color.Yellow("Configure one in .lnswap.yaml (provider.kind: lnbits, provider.url, provider.api_key)\n")
}

func (o *terminalObserver) OrderCreated(_ string, order types.Order) {
	if o.quiet {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spinner.Stop()
	fmt.Printf("\n  Order ID:  %s\n", color.CyanString(order.Ref.ID))
	fmt.Printf("  Token:     %s\n", color.HiBlackString(order.Ref.Token))
	o.spinner.Start()
}

func (o *terminalObserver) Instructions(_ string, in types.Instructions) {
	if o.quiet {
		return
	}
	o.stop()
	displayInstructions(in)
}

func (o *terminalObserver) StatusUpdated(_, status string) {
	if o.quiet {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spinner.Suffix = fmt.Sprintf(" Order status: %s", status)
}

func (o *terminalObserver) stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spinner.Stop()
}

func displayInstructions(in types.Instructions) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Yellow("                       DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\nTo complete the swap, send exactly %s %s", color.GreenString(in.Amount), color.YellowString(in.Coin))
	if in.Network != "" {
		fmt.Printf(" on %s", in.Network)
	}
	fmt.Print(" to:\n\n")
	color.Cyan("  %s\n", in.Address)

	if in.URI != "" && in.URI != in.Address {
		fmt.Printf("\nPayment URI:\n  %s\n", in.URI)
	}

	color.Red("\n%s", in.Warning)
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
