// Command sppworker is the control-plane entry point: it parses the
// process inputs of spec.md §6, builds the initial ProcessState from the
// (stubbed, out-of-scope) driver inventory, and drives the controller
// session loop until a shutdown signal or a fatal transport error.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/flush"
	"github.com/sandia-minimega/sppworker/internal/lifecycle"
	"github.com/sandia-minimega/sppworker/internal/minilog"
	"github.com/sandia-minimega/sppworker/internal/reply"
	"github.com/sandia-minimega/sppworker/internal/runner"
	"github.com/sandia-minimega/sppworker/internal/session"
	"github.com/sandia-minimega/sppworker/internal/state"
)

var (
	fClientID       = flag.Int("client-id", 0, "numeric client id reported to the controller")
	fVhostClient    = flag.Bool("vhost-client", false, "run as a vhost-user client instead of server")
	fSecondaryType  = flag.String("secondary-type", "", "secondary process role tag reported at startup")
	fLcores         = flag.String("lcores", "1", "comma-separated logical core ids this process manages")
	fPhyPorts       = flag.Int("phy-ports", 0, "number of physical ports discovered at init")
	fVhostPorts     = flag.Int("vhost-ports", 0, "number of vhost ports discovered at init")
	fRingPorts      = flag.Int("ring-ports", 0, "number of ring ports discovered at init")
	fReconnectDelay = flag.Duration("reconnect-delay", session.DefaultReconnectDelay, "delay between controller reconnect attempts")
	fAckRetries     = flag.Int("flush-ack-retries", flush.DefaultConfig.AckRetries, "bounded retries waiting for a core to acknowledge a flush")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sppworker [options] <controller-ip> <controller-port>")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	minilog.Init()

	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}

	host := flag.Arg(0)
	port, err := parsePort(flag.Arg(1))
	if err != nil {
		minilog.Fatal("invalid controller port: %v", err)
	}

	lcores, err := parseLcoreList(*fLcores)
	if err != nil {
		minilog.Fatal("invalid -lcores: %v", err)
	}

	ps := state.New(state.Params{
		ClientID:       *fClientID,
		ControllerHost: host,
		ControllerPort: port,
		SecondaryType:  *fSecondaryType,
	}, lcores)

	initPorts(ps)

	f := flush.New(flush.Config{AckRetries: *fAckRetries, AckSpacing: flush.DefaultConfig.AckSpacing}, nil)
	run := runner.New(ps, f)

	sup := lifecycle.New(ps)
	go sup.Watch()

	sess := session.New(session.Config{
		Host:           host,
		Port:           port,
		ReconnectDelay: *fReconnectDelay,
	})

	handler := func(msg string) []byte {
		cmd, err := command.Parse(msg)
		if err != nil {
			minilog.Debug("rejected malformed command: %v", err)
			return reply.ParseError(err)
		}

		res := run.Execute(cmd)
		if cmd.Verb == command.VerbExit {
			go sup.Shutdown()
		}
		return reply.Format(res)
	}

	if err := sess.Run(sup.Stop(), handler); err != nil {
		sup.RequestStop()
		minilog.Fatal("session terminated: %v", err)
	}

	sup.WaitForStopped()
}

func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}

func parseLcoreList(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty lcore list")
	}
	return ids, nil
}

// initPorts stands in for the out-of-scope poll-mode driver inventory
// (spec.md §1, §6's add_ring_pmd/add_vhost_pmd adapters): it assigns
// sequential driver ids to the requested number of ports per kind.
func initPorts(ps *state.ProcessState) {
	driverID := 0
	for i := 0; i < *fPhyPorts; i++ {
		ps.AddPort(state.PortRef{Kind: state.KindPhy, Index: i}, driverID)
		driverID++
	}
	for i := 0; i < *fVhostPorts; i++ {
		ps.AddPort(state.PortRef{Kind: state.KindVhost, Index: i}, driverID)
		driverID++
	}
	for i := 0; i < *fRingPorts; i++ {
		ps.AddPort(state.PortRef{Kind: state.KindRing, Index: i}, driverID)
		driverID++
	}
}
