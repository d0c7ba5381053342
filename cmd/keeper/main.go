// Command keeper runs a single Bin Storage keeper process (spec §4): it
// synchronizes the clock floor across the back-ends in its config, monitors
// liveness, and migrates replicas when membership changes, while its range
// holds the keeper-of-keepers lock.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/config"
	"github.com/dreamware/tribbler/internal/keeper"
	"github.com/dreamware/tribbler/internal/launcher"
	"github.com/dreamware/tribbler/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "keeper: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Run a Bin Storage keeper",
	RunE:  runKeeper,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", config.DefaultPath, "bin configuration file")
	flags.String("range", "default", "name of the keeper range this process belongs to")
	flags.Int("replicas", 1, "replica count to apply when synchronizing and migrating")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringSlice("ready-addrs", nil, "addresses to notify once the keeper is steady")
	flags.Duration("recv-timeout", 10*time.Second, "how long to wait for the keeper to become ready")
}

func runKeeper(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	rangeName, _ := cmd.Flags().GetString("range")
	replicas, _ := cmd.Flags().GetInt("replicas")
	logLevel, _ := cmd.Flags().GetString("log-level")
	readyAddrs, _ := cmd.Flags().GetStringSlice("ready-addrs")
	recvTimeout, _ := cmd.Flags().GetDuration("recv-timeout")

	log := logging.New(os.Stderr, logLevel, "keeper")

	topo, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := binstore.NewClient(binstore.NewRing(topo.Backs), replicas, log)
	binsProvider := func() []string {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		users, err := client.Bin("").ListGet(ctx, "users")
		if err != nil {
			log.Warn().Err(err).Msg("listing known bins failed")
			return nil
		}
		return users
	}

	k := keeper.New(client, keeper.DefaultConfig(rangeName, replicas), binsProvider, log)

	ctx, cancel := context.WithCancel(context.Background())
	go k.Start(ctx)

	select {
	case ok := <-k.Ready:
		if !ok {
			cancel()
			return fmt.Errorf("keeper failed to reach steady state")
		}
	case <-time.After(recvTimeout):
		cancel()
		return fmt.Errorf("timed out waiting for keeper to become ready")
	}

	log.Info().Str("range", rangeName).Msg("keeper steady")
	if len(readyAddrs) > 0 {
		go launcher.NotifyReady(readyAddrs, recvTimeout, log)
	}

	launcher.WaitForSignal(log, func() {
		cancel()
		k.Stop()
	})
	return nil
}
