package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lnswap/pkg/amount"
	"lnswap/pkg/parser"
	"lnswap/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <currency>",
	Short: "Show how many satoshis a receive of <amount> <currency> would invoice",
	Long: `Ask the backend for the bitcoin value of <amount> <currency> in the receive
direction. Nothing is created; the quote is only displayed.

Examples:
  lnswap quote 10 USDCETH`,
	Args: cobra.ExactArgs(2),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	parsed, err := parser.ParseCommand("receive " + strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	amt, err := amount.ParsePositive(parsed.Amount)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a := mustApp()
	defer a.Close()
	ctx := context.Background()

	if _, err := a.catalog.Lookup(ctx, types.FromRecipient, parsed.Currency); err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := a.backend.GetQuote(ctx, parsed.Currency, amt.String())
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sats, err := amount.ToSatoshis(quote.ToAmount)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"currency":    quote.Currency,
			"amount":      amt.String(),
			"btc_amount":  amount.FormatBTC(quote.ToAmount),
			"amount_sats": sats,
		})
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     RECEIVE QUOTE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Deposit:           %s %s\n", amt.String(), color.YellowString(quote.Currency))
	fmt.Printf("  You receive:       %s BTC\n", color.GreenString(amount.FormatBTC(quote.ToAmount)))
	fmt.Printf("  Invoice amount:    %s sats\n", color.CyanString("%d", sats))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
