package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lnswap/pkg/poller"
	"lnswap/pkg/types"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status <order-id> <token>",
	Short: "Check the status of an order",
	Long: `Check the status of an order by its id and token. Both are printed when the
order is created.

Examples:
  lnswap status ABC123 tok_xyz
  lnswap status ABC123 tok_xyz --watch`,
	Args: cobra.ExactArgs(2),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the order completes")
}

func runStatus(cmd *cobra.Command, args []string) {
	ref := types.OrderRef{ID: args[0], Token: args[1]}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp()
	defer a.Close()

	if watchStatus {
		watchOrderStatus(a, ref, jsonOutput)
	} else {
		checkOrderStatus(a, ref, jsonOutput)
	}
}

func checkOrderStatus(a *app, ref types.OrderRef, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking order status..."
		s.Start()
	}

	status, err := a.backend.OrderStatus(context.Background(), ref)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]string{"order_id": ref.ID, "status": status})
	} else {
		displayStatus(ref, status)
	}
}

func watchOrderStatus(a *app, ref types.OrderRef, jsonOutput bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonOutput {
		fmt.Printf("\nWatching order %s\n", color.CyanString(ref.ID))
		fmt.Printf("Checking every %s. Press Ctrl+C to stop.\n\n", poller.Interval)
	}

	enc := json.NewEncoder(os.Stdout)
	h, err := a.poller.Start(ctx, ref, func(status string) {
		if jsonOutput {
			_ = enc.Encode(map[string]string{"order_id": ref.ID, "status": status})
			return
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), getColoredStatus(status))
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	<-h.Done()
	if h.Completed() {
		if !jsonOutput {
			displayStatus(ref, h.LastStatus())
		}
		return
	}
	if ctx.Err() == nil {
		color.Yellow("\nStopped polling before the order completed (last status: %s)", h.LastStatus())
		os.Exit(1)
	}
}

func displayStatus(ref types.OrderRef, status string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        ORDER STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Order ID:        %s\n", color.CyanString(ref.ID))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status))
	fmt.Printf("  Checked At:      %s\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "COMPLETED":
		return color.GreenString(status)
	case "NEW", "PENDING", "EXCHANGE", "WITHDRAW":
		return color.YellowString(status)
	case "EXPIRED", "EMERGENCY", "FAILED":
		return color.RedString(status)
	case "":
		return color.HiBlackString("UNKNOWN")
	default:
		return status
	}
}
