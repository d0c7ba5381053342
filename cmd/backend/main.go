// Command backend runs a single Bin Storage back-end process (spec §6.1): an
// in-memory key-value store served over the back-end RPC surface.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/backend"
	"github.com/dreamware/tribbler/internal/launcher"
	"github.com/dreamware/tribbler/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "backend: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run a Bin Storage back-end",
	RunE:  runBackend,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("addr", "127.0.0.1:7070", "address to listen on")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringSlice("ready-addrs", nil, "addresses to notify once the back-end is serving")
	flags.Duration("recv-timeout", 10*time.Second, "timeout applied to ready notifications")
}

func runBackend(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	logLevel, _ := cmd.Flags().GetString("log-level")
	readyAddrs, _ := cmd.Flags().GetStringSlice("ready-addrs")
	recvTimeout, _ := cmd.Flags().GetDuration("recv-timeout")

	log := logging.New(os.Stderr, logLevel, "backend")
	b := backend.New(log)

	if len(readyAddrs) > 0 {
		go func() {
			time.Sleep(50 * time.Millisecond)
			launcher.NotifyReady(readyAddrs, recvTimeout, log)
		}()
	}

	log.Info().Str("addr", addr).Msg("backend starting")
	return launcher.RunHTTPServer(log, addr, b)
}
