// Command kvrepl is an interactive client against a single Bin Storage
// back-end, issuing the raw key-value RPCs of spec §6.1 for diagnostics.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/rpc"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kvrepl: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kvrepl",
	Short: "Interactive client for a single Bin Storage back-end",
	RunE:  runKvrepl,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("addr", "http://127.0.0.1:7070", "back-end address")
}

func runKvrepl(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	client := rpc.NewClient(addr)
	return repl(os.Stdin, os.Stdout, func(ctx context.Context, args []string) (string, error) {
		return dispatch(ctx, client, args)
	})
}

// repl reads whitespace-separated commands from in, one per line, printing
// each result to out, until "exit" or EOF.
func repl(in io.Reader, out io.Writer, run func(context.Context, []string) (string, error)) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
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

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := run(ctx, args)
		cancel()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, result)
	}
}

// storage is the subset of rpc.Client's surface the REPL commands below
// need. cmd/binrepl does not use it; it has its own dispatch over
// binstore.Storage.
type storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Keys(ctx context.Context, prefix, suffix string) ([]string, error)
	ListGet(ctx context.Context, key string) ([]string, error)
	ListAppend(ctx context.Context, key, value string) error
	ListRemove(ctx context.Context, key, value string) (int, error)
	ListKeys(ctx context.Context, prefix, suffix string) ([]string, error)
	Clock(ctx context.Context, atLeast uint64) (uint64, error)
}

func dispatch(ctx context.Context, s storage, args []string) (string, error) {
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
