package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jackpal/gateway"

	"github.com/tkjaer/epinger/internal/shared"
)

var (
	ErrNoTargets     = errors.New("must supply either host(s) or --input arguments")
	ErrInputNotFound = errors.New("input file does not exist")
)

var discoverGateway = gateway.DiscoverGateway

// LoadHosts reads one host per line from path. Lines are trimmed; blank
// lines and lines starting with # are skipped. Duplicates are kept.
func LoadHosts(path string) ([]shared.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var targets []shared.Target
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, shared.Target(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	slog.Debug("Loaded hosts", "count", len(targets), "file", path)
	return targets, nil
}

// Targets assembles the hosts to ping. Hosts given on the command line take
// precedence over an input file, which is then not read.
func (a Args) Targets() ([]shared.Target, error) {
	var targets []shared.Target
	switch {
	case len(a.Hosts) > 0:
		for _, h := range a.Hosts {
			targets = append(targets, shared.Target(h))
		}
	case a.Input != "":
		loaded, err := LoadHosts(a.Input)
		if err != nil {
			return nil, err
		}
		targets = loaded
	case !a.Gateway:
		return nil, ErrNoTargets
	}

	if a.Gateway {
		gw, err := discoverGateway()
		if err != nil {
			return nil, fmt.Errorf("failed to discover default gateway: %w", err)
		}
		slog.Debug("Adding default gateway", "gateway", gw)
		targets = append(targets, shared.Target(gw.String()))
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}
