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

	"lnswap/pkg/address"
	"lnswap/pkg/client"
	"lnswap/pkg/types"
)

var (
	filterDirection string
	filterSymbol    string
)

var currenciesCmd = &cobra.Command{
	Use:     "currencies",
	Aliases: []string{"ls"},
	Short:   "List the currencies you can send or receive",
	Long: `List the currencies supported by the swap backend.

Without --direction every currency is shown with the directions it supports.

Examples:
  lnswap currencies
  lnswap currencies --direction send
  lnswap currencies --symbol USDC`,
	Run: runCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)

	currenciesCmd.Flags().StringVarP(&filterDirection, "direction", "d", "", "Only show currencies eligible for send or receive")
	currenciesCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by currency code or coin")
}

type currencyJSON struct {
	Code    string `json:"code"`
	Coin    string `json:"coin,omitempty"`
	Network string `json:"network,omitempty"`
	Name    string `json:"name,omitempty"`
	Send    bool   `json:"send"`
	Receive bool   `json:"receive"`
}

func runCurrencies(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp()
	defer a.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching currencies..."
		s.Start()
	}

	ctx := context.Background()
	var list []types.Currency
	if filterDirection != "" {
		d, err := types.ParseDirection(filterDirection)
		if err != nil {
			s.Stop()
			printError(err)
			os.Exit(1)
		}
		// eligibility goes through the catalog so a failed listing still yields the fallback set
		list = a.catalog.Eligible(ctx, d)
	} else {
		all, err := a.backend.ListCurrencies(ctx)
		if err != nil {
			s.Stop()
			printError(err)
			os.Exit(1)
		}
		list = append(client.EligibleCurrencies(all, types.ToRecipient), receiveOnly(all)...)
	}
	if !jsonOutput {
		s.Stop()
	}

	// Apply filters
	if filterSymbol != "" {
		var temp []types.Currency
		for _, c := range list {
			if strings.Contains(strings.ToUpper(c.Code), strings.ToUpper(filterSymbol)) ||
				strings.EqualFold(c.Coin, filterSymbol) {
				temp = append(temp, c)
			}
		}
		list = temp
	}

	if jsonOutput {
		out := make([]currencyJSON, 0, len(list))
		for _, c := range list {
			out = append(out, currencyJSON{Code: c.Code, Coin: c.Coin, Network: address.NetworkOf(c), Name: c.Name, Send: c.Send, Receive: c.Recv})
		}
		printJSON(out)
		return
	}
	displayCurrencies(list)
}

func receiveOnly(all []types.Currency) []types.Currency {
	var out []types.Currency
	for _, c := range client.EligibleCurrencies(all, types.FromRecipient) {
		if !c.Send {
			out = append(out, c)
		}
	}
	return out
}

func displayCurrencies(list []types.Currency) {
	if len(list) == 0 {
		fmt.Println("\nNo currencies found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                              SUPPORTED CURRENCIES")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\n  %-12s %-8s %-10s %-28s %s\n", "CODE", "COIN", "NETWORK", "NAME", "DIRECTIONS")
	for _, c := range list {
		var dirs []string
		if c.Send {
			dirs = append(dirs, color.GreenString("send"))
		}
		if c.Recv {
			dirs = append(dirs, color.CyanString("receive"))
		}
		fmt.Printf("  %s %-8s %-10s %-28s %s\n",
			color.YellowString("%-12s", c.Code), c.Coin, address.NetworkOf(c), truncateString(c.Name, 28), strings.Join(dirs, ", "))
	}

	fmt.Printf("\n  Total: %d\n", len(list))
	fmt.Println(strings.Repeat("=", 80) + "\n")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
