package matchsim

import "os"

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Arena Match Simulator
=====================

Simulates free-for-all arena matches, records them and submits the replays.

Usage:
  go run ./cmd/arena-sim [options]

Options:
  -url string
        Base URL of the replay service; empty runs offline (default "http://localhost:9080")
  -matches int
        Number of matches to simulate (default 20)
  -seed uint
        Seed of the first match (default 1)
  -agents int
        Agents per match, 2 to 6 (default 6)
  -workers int
        Number of concurrent submitters (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Export file, a JSON array of match recaps
  -timelines
        Embed full timelines in the export
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Submit 20 matches to a local service
  go run ./cmd/arena-sim

  # Export 5 matches without a service
  go run ./cmd/arena-sim -url "" -matches 5 -output replays.json
`)
}
