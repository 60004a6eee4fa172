package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lnswap/config"
	"lnswap/pkg/client"
	"lnswap/pkg/poller"
	"lnswap/pkg/provider"
)

var rootCmd = &cobra.Command{
	Use:   "lnswap",
	Short: "A CLI for swapping between Lightning and on-chain assets",
	Long: `lnswap moves value between a Lightning wallet and on-chain assets through a
swap backend. Send pays an order invoice from your wallet so the backend pays out
to an external address; receive creates an invoice in your wallet and tells you
exactly what to deposit.

Examples:
  lnswap currencies --direction receive
  lnswap quote 10 USDCETH
  lnswap send 10 USDCETH to 0x52908400098527886E0F7030069857D2E4169EE7
  lnswap receive 10 USDCETH --qr-file deposit.svg
  lnswap status <order-id> <token> --watch`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func setupLogging(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log.level %q: %w", cfg.LogLevel, err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	return nil
}

// app holds the components a command needs
type app struct {
	cfg     *config.Config
	backend *client.BackendClient
	catalog *client.Catalog
	poller  *poller.Poller
	detect  provider.Detector
	log     logrus.FieldLogger
}

func newApp() (*app, error) {
	cfg := config.Get()
	log := logrus.StandardLogger()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	backend, err := client.NewBackendClient(cfg.APIURL, httpClient, log)
	if err != nil {
		return nil, err
	}

	catalog, err := client.NewCatalog(backend, cfg.Currencies.CacheTTL, cfg.Currencies.Fallback, log)
	if err != nil {
		return nil, err
	}

	providerCfg := provider.Config{
		Kind:   cfg.Provider.Kind,
		URL:    cfg.Provider.URL,
		APIKey: cfg.Provider.APIKey,
		Memo:   cfg.Provider.Memo,
	}

	return &app{
		cfg:     cfg,
		backend: backend,
		catalog: catalog,
		poller:  poller.New(backend, poller.WithMaxDuration(cfg.Poll.MaxDuration), poller.WithLogger(log)),
		detect:  provider.NewDetector(providerCfg, httpClient, log),
		log:     log,
	}, nil
}

func (a *app) Close() {
	a.catalog.Close()
}

func mustApp() *app {
	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return a
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
