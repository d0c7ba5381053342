// Command binrepl is an interactive client against the Bin Storage
// virtualization layer: it starts on the root bin ("") and lets the
// operator switch to a named bin with "bin <name>" before issuing the same
// raw key-value commands kvrepl exposes against a single back-end.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/binstore"
	"github.com/dreamware/tribbler/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "binrepl: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "binrepl",
	Short: "Interactive client against the Bin Storage virtualization layer",
	RunE:  runBinrepl,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("config", config.DefaultPath, "bin configuration file")
	flags.Int("replicas", 1, "replica count to apply")
}

func runBinrepl(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	replicas, _ := cmd.Flags().GetInt("replicas")

	topo, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := binstore.NewClient(binstore.NewRing(topo.Backs), replicas, zerolog.Nop())
	current := client.Bin("")
	fmt.Println(`(now working on bin "")`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return nil
		}
		if args[0] == "bin" {
			if len(args) < 2 {
				fmt.Println("usage: bin <name>")
				continue
			}
			current = client.Bin(args[1])
			fmt.Printf("(now working on bin %q)\n", args[1])
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := dispatchBin(ctx, current, args)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(result)
	}
}

func dispatchBin(ctx context.Context, s binstore.Storage, args []string) (string, error) {
	cmdName := args[0]
	rest := args[1:]
	switch cmdName {
	case "get":
		if len(rest) < 1 {
			return "", fmt.Errorf("usage: get <key>")
		}
		v, err := s.Get(ctx, rest[0])
		return fmt.Sprintf("%q", v), err
	case "set":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: set <key> <value>")
		}
		err := s.Set(ctx, rest[0], rest[1])
		return "ok", err
	case "keys":
		prefix, suffix := argOr(rest, 0, ""), argOr(rest, 1, "")
		v, err := s.Keys(ctx, prefix, suffix)
		return fmt.Sprintf("%v", v), err
	case "list-get":
		if len(rest) < 1 {
			return "", fmt.Errorf("usage: list-get <key>")
		}
		v, err := s.ListGet(ctx, rest[0])
		return fmt.Sprintf("%v", v), err
	case "list-append":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: list-append <key> <value>")
		}
		err := s.ListAppend(ctx, rest[0], rest[1])
		return "ok", err
	case "list-remove":
		if len(rest) < 2 {
			return "", fmt.Errorf("usage: list-remove <key> <value>")
		}
		n, err := s.ListRemove(ctx, rest[0], rest[1])
		return fmt.Sprintf("%d", n), err
	case "list-keys":
		prefix, suffix := argOr(rest, 0, ""), argOr(rest, 1, "")
		v, err := s.ListKeys(ctx, prefix, suffix)
		return fmt.Sprintf("%v", v), err
	case "clock":
		atLeast, _ := strconv.ParseUint(argOr(rest, 0, "0"), 10, 64)
		v, err := s.Clock(ctx, atLeast)
		return fmt.Sprintf("%d", v), err
	default:
		return "", fmt.Errorf("unexpected command %q, try again", cmdName)
	}
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
