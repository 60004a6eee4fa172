package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lnswap/pkg/flow"
	"lnswap/pkg/parser"
	"lnswap/pkg/types"
)

var (
	noConfirm bool
	noWait    bool
	qrFile    string
)

var sendCmd = &cobra.Command{
	Use:   "send <amount> <currency> to <address>",
	Short: "Pay from your Lightning wallet to an external address",
	Long: `Create an order that pays out <amount> <currency> to <address> and pay its
Lightning invoice from the configured wallet.

Examples:
  lnswap send 10 USDCETH to 0x52908400098527886E0F7030069857D2E4169EE7
  lnswap send 25 USDTSOL to 7EcDhSYGxXyscszYEp35KHN8vvw3svAuLKTzXwCFLtV --yes`,
	Args: cobra.MinimumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		runFlow(cmd, "send "+strings.Join(args, " "))
	},
}

var receiveCmd = &cobra.Command{
	Use:   "receive <amount> <currency>",
	Short: "Receive into your Lightning wallet by depositing an on-chain asset",
	Long: `Quote <amount> <currency> in bitcoin, create an invoice for it in the configured
wallet and create an order paying that invoice. You then deposit exactly the
amount shown to the order's deposit address.

Examples:
  lnswap receive 10 USDCETH
  lnswap receive 10 USDCETH --qr-file deposit.svg`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runFlow(cmd, "receive "+strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)

	for _, c := range []*cobra.Command{sendCmd, receiveCmd} {
		c.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
		c.Flags().BoolVar(&noWait, "no-wait", false, "Exit once the order is created instead of waiting for completion")
	}
	receiveCmd.Flags().StringVar(&qrFile, "qr-file", "", "Save a QR code of the deposit URI to this file")
}

func runFlow(cmd *cobra.Command, command string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	parsed, err := parser.ParseCommand(command)
	if err == nil {
		err = parser.ValidateCommand(parsed)
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a := mustApp()
	defer a.Close()

	if !jsonOutput {
		displayRequest(parsed)
	}

	// Ask for confirmation
	if parsed.Direction == types.ToRecipient && !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := newTerminalObserver(jsonOutput)
	orch := flow.NewOrchestrator(a.backend, a.catalog, a.poller, a.detect, observer, a.log)

	res, err := orch.Submit(ctx, flow.Request{
		Direction:   parsed.Direction,
		Currency:    parsed.Currency,
		Amount:      parsed.Amount,
		Destination: parsed.Destination,
	})
	observer.stop()

	if res != nil && res.Instructions != nil && qrFile != "" {
		saveQRCode(ctx, a, res.Instructions.URI)
	}

	if err != nil {
		if res == nil || res.Handle == nil {
			if jsonOutput {
				printJSON(flowOutput(res, orch.State(), err))
			} else {
				printError(err)
			}
			os.Exit(1)
		}
		if !jsonOutput {
			printError(err)
			color.Yellow("The order was created, so its status is still being tracked.")
		}
	} else if !jsonOutput && parsed.Direction == types.ToRecipient {
		color.Green("\n✓ Invoice paid")
		fmt.Printf("  Preimage: %s\n", color.HiBlackString(res.Preimage))
	}

	state := orch.State()
	var waitErr error
	if !noWait {
		state, waitErr = orch.Await(ctx, res.Handle)
		orch.Cancel()
		observer.stop()
	}

	if jsonOutput {
		printJSON(flowOutput(res, state, err))
	} else if noWait {
		fmt.Println("\nYou can monitor the order using:")
		color.Cyan("  lnswap status %s %s --watch\n", res.Order.Ref.ID, res.Order.Ref.Token)
	} else if state == flow.Done {
		printSuccess(color.GreenString("✓ Order %s completed", res.Order.Ref.ID))
	} else if waitErr != nil {
		fmt.Println("\nStopped waiting. Resume with:")
		color.Cyan("  lnswap status %s %s --watch\n", res.Order.Ref.ID, res.Order.Ref.Token)
	} else if !res.Handle.Completed() {
		color.Yellow("\nStopped polling before the order completed (last status: %s)", res.Handle.LastStatus())
	}

	if code := flowExitCode(err, noWait, state, waitErr); code != 0 {
		os.Exit(code)
	}
}

// flowExitCode is 1 when the flow failed, or when waiting ended without completion
// for a reason other than the user interrupting it
func flowExitCode(flowErr error, noWait bool, state flow.State, waitErr error) int {
	if flowErr != nil {
		return 1
	}
	if noWait || waitErr != nil || state == flow.Done {
		return 0
	}
	return 1
}

func displayRequest(c *parser.Command) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	if c.Direction == types.ToRecipient {
		color.Green("                             SEND")
	} else {
		color.Green("                            RECEIVE")
	}
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Amount:            %s %s\n", c.Amount, color.YellowString(c.Currency))
	if c.Destination != "" {
		fmt.Printf("  Destination:       %s\n", color.CyanString(c.Destination))
	}
	fmt.Println("\n" + strings.Repeat("=", 70))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed and pay from your Lightning wallet? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func saveQRCode(ctx context.Context, a *app, uri string) {
	markup, err := a.backend.QRCode(ctx, uri)
	if err != nil {
		color.Red("Could not render QR code: %v", err)
		return
	}
	if err := os.WriteFile(qrFile, []byte(markup), 0o644); err != nil {
		color.Red("Could not save QR code: %v", err)
		return
	}
	fmt.Printf("QR code saved to %s\n", color.CyanString(qrFile))
}

type flowJSON struct {
	FlowID       string              `json:"flow_id,omitempty"`
	Direction    string              `json:"direction,omitempty"`
	State        string              `json:"state"`
	OrderID      string              `json:"order_id,omitempty"`
	OrderToken   string              `json:"order_token,omitempty"`
	Satoshis     int64               `json:"amount_sats,omitempty"`
	Invoice      string              `json:"invoice,omitempty"`
	Preimage     string              `json:"preimage,omitempty"`
	Instructions *types.Instructions `json:"instructions,omitempty"`
	LastStatus   string              `json:"last_status,omitempty"`
	Error        string              `json:"error,omitempty"`
}

func flowOutput(res *flow.Result, state flow.State, err error) flowJSON {
	out := flowJSON{State: state.String()}
	if err != nil {
		out.Error = err.Error()
	}
	if res == nil {
		return out
	}

	out.FlowID = res.ID
	out.Direction = res.Direction.String()
	out.Satoshis = res.Satoshis
	out.Invoice = res.Invoice
	out.Preimage = res.Preimage
	out.Instructions = res.Instructions
	if res.Order != nil {
		out.OrderID = res.Order.Ref.ID
		out.OrderToken = res.Order.Ref.Token
	}
	if res.Handle != nil {
		out.LastStatus = res.Handle.LastStatus()
	}
	return out
}

func printJSON(v any) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError(errors.New("failed to encode output"))
		return
	}
	fmt.Println(string(jsonData))
}
