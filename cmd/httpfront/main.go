// Command httpfront runs the Tribbler HTTP front-end (spec §6.5): it wires
// internal/tribbler onto internal/binstore and serves the form-encoded API
// internal/httpapi exposes.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/config"
	"github.com/dreamware/tribbler/internal/httpapi"
	"github.com/dreamware/tribbler/internal/launcher"
	"github.com/dreamware/tribbler/internal/logging"
	"github.com/dreamware/tribbler/internal/metrics"
	"github.com/dreamware/tribbler/internal/tribbler"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "httpfront: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "httpfront",
	Short: "Run the Tribbler HTTP front-end",
	RunE:  runHTTPFront,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("config", config.DefaultPath, "bin configuration file")
	flags.String("host", "0.0.0.0", "host address to bind to")
	flags.Int("port", 8080, "host port to bind")
	flags.Int("replicas", 1, "replica count to apply")
}

func runHTTPFront(cmd *cobra.Command, _ []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	configPath, _ := cmd.Flags().GetString("config")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	replicas, _ := cmd.Flags().GetInt("replicas")

	log := logging.New(os.Stderr, logLevel, "httpfront")

	topo, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := binstore.NewClient(binstore.NewRing(topo.Backs), replicas, log)
	tr := tribbler.New(client)
	srv := httpapi.New(tr, log)

	mux := http.NewServeMux()
	mux.Handle("/api/", srv)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.NewRegistry(), promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info().Str("addr", addr).Msg("tribbler serving")
	return launcher.RunHTTPServer(log, addr, mux)
}
