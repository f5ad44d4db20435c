// Package cli implements the pipeview command-line interface.
//
// The CLI lays out pipeline dependency graphs from graph.json files, animates
// the relaxation in the terminal, serves the same operations over HTTP and
// manages the position store and layout cache. It is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute positions and write layout.json
//   - watch: Animate a layout run batch by batch
//   - serve: Run the HTTP API with Prometheus metrics
//   - config: Show, create and check layout configuration files
//   - positions: Inspect and delete stored position maps
//   - cache: Manage the local layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context before any command runs.
//
// # Example
//
//	import "github.com/matzehuels/pipeview/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli
