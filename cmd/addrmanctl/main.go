// Command addrmanctl is a small offline inspection tool for addrman
// state files: it can dump a serialized table's summary statistics,
// seed a fresh table from a newline-delimited list of host:port
// endpoints, or compact a persisted file by dropping terrible entries.
// It is a thin wrapper around the addrman library package.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log"

	"github.com/basalt-network/addrman"
)

var log = logging.Logger("addrmanctl")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "dump":
		err = runDump(ctx, os.Args[2:])
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	case "compact":
		err = runCompact(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorf("addrmanctl: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: addrmanctl dump -state PATH")
	fmt.Fprintln(os.Stderr, "       addrmanctl seed -state PATH -from FILE")
	fmt.Fprintln(os.Stderr, "       addrmanctl compact -state PATH")
}

func runDump(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	statePath := fs.String("state", "", "path to a serialized addrman state file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statePath == "" {
		return fmt.Errorf("-state is required")
	}

	mgr, err := addrman.New()
	if err != nil {
		return err
	}
	if err := mgr.Unserialize(ctx, *statePath); err != nil {
		return fmt.Errorf("loading %s: %w", *statePath, err)
	}

	size, err := mgr.Size(ctx)
	if err != nil {
		return err
	}
	peers, err := mgr.GetPeers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("entries: %d\n", size)
	fmt.Printf("gossip sample: %d\n", len(peers))
	for _, p := range peers {
		fmt.Printf("  %s:%d\n", p.Host, p.Port)
	}
	return nil
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	statePath := fs.String("state", "", "path to write the serialized state to")
	fromPath := fs.String("from", "", "newline-delimited host:port list to seed from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statePath == "" || *fromPath == "" {
		return fmt.Errorf("-state and -from are required")
	}

	f, err := os.Open(*fromPath)
	if err != nil {
		return err
	}
	defer f.Close()

	mgr, err := addrman.New()
	if err != nil {
		return err
	}

	var endpoints []addrman.Endpoint
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ep, err := parseHostPort(line)
		if err != nil {
			log.Warnf("addrmanctl: skipping %q: %v", line, err)
			continue
		}
		endpoints = append(endpoints, ep)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	added, err := mgr.AddToNewTable(ctx, endpoints, nil, 0)
	if err != nil {
		return err
	}
	log.Infof("addrmanctl: seeded %d endpoints (new=%v)", len(endpoints), added)

	return mgr.Serialize(ctx, *statePath)
}

// runCompact loads a persisted state file, drops every NEW-table entry
// that is now terrible, and writes the result back to the same path.
func runCompact(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	statePath := fs.String("state", "", "path to a serialized addrman state file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statePath == "" {
		return fmt.Errorf("-state is required")
	}

	mgr, err := addrman.New()
	if err != nil {
		return err
	}
	if err := mgr.Unserialize(ctx, *statePath); err != nil {
		return fmt.Errorf("loading %s: %w", *statePath, err)
	}

	before, err := mgr.Size(ctx)
	if err != nil {
		return err
	}
	removed, err := mgr.Compact(ctx)
	if err != nil {
		return err
	}
	log.Infof("addrmanctl: compacted %d of %d entries", removed, before)

	return mgr.Serialize(ctx, *statePath)
}

func parseHostPort(s string) (addrman.Endpoint, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return addrman.Endpoint{}, fmt.Errorf("missing port")
	}
	host, portStr := s[:idx], s[idx+1:]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return addrman.Endpoint{}, fmt.Errorf("invalid port: %w", err)
	}
	if host == "" {
		return addrman.Endpoint{}, addrman.ErrNoHost
	}
	if port == 0 {
		return addrman.Endpoint{}, addrman.ErrNoPort
	}
	return addrman.Endpoint{Host: host, Port: uint16(port)}, nil
}
