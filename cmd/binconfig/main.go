// Command binconfig generates a bins.json topology document from a set of
// IP addresses and back-end/keeper counts (spec §6.3).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/dreamware/tribbler/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "binconfig: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "binconfig",
	Short: "Generate a bins.json topology document",
	RunE:  runBinconfig,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringSlice("ip", []string{"localhost"}, "IP addresses to spread back-ends and keepers across; repeat to use more than one")
	flags.Int("backs", 3, "number of back-ends")
	flags.Int("keeps", 1, "number of keepers")
	flags.String("file", config.DefaultPath, "location to write the config file; use - for stdout")
	flags.Bool("fix", false, "use fixed, sequential port numbers instead of picking free ones")
}

func runBinconfig(cmd *cobra.Command, _ []string) error {
	ips, _ := cmd.Flags().GetStringSlice("ip")
	backs, _ := cmd.Flags().GetInt("backs")
	keeps, _ := cmd.Flags().GetInt("keeps")
	file, _ := cmd.Flags().GetString("file")
	fix, _ := cmd.Flags().GetBool("fix")

	if backs > config.MaxBacks {
		return fmt.Errorf("too many backs: %d, must be <= %d", backs, config.MaxBacks)
	}
	if keeps > config.MaxKeepers {
		return fmt.Errorf("too many keepers: %d, must be <= %d", keeps, config.MaxKeepers)
	}
	if len(ips) == 0 {
		ips = []string{"localhost"}
	}

	ports := newPortPicker(fix)

	topo := config.Topology{}
	for i := 0; i < backs; i++ {
		port, err := ports.next()
		if err != nil {
			return err
		}
		topo.Backs = append(topo.Backs, fmt.Sprintf("%s:%d", ips[i%len(ips)], port))
	}
	for i := 0; i < keeps; i++ {
		port, err := ports.next()
		if err != nil {
			return err
		}
		topo.Keepers = append(topo.Keepers, fmt.Sprintf("%s:%d", ips[i%len(ips)], port))
	}

	if file == "-" {
		return printTopology(os.Stdout, topo)
	}
	return config.Save(file, topo)
}

func printTopology(w io.Writer, topo config.Topology) error {
	data, err := json.MarshalIndent(topo, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// portPicker hands out port numbers for a generated topology: fixed,
// sequential ports starting at 3000 when fix is set, or free ports claimed
// from the OS otherwise so that concurrently generated configs never
// collide.
type portPicker struct {
	fix      bool
	nextPort int
}

func newPortPicker(fix bool) *portPicker {
	return &portPicker{fix: fix, nextPort: 3000}
}

func (p *portPicker) next() (int, error) {
	if p.fix {
		port := p.nextPort
		p.nextPort++
		return port, nil
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("pick free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
