package notelog

// Command is one discrete application operation with its own options.
// Parsing, validation and execution stay separate: Parse produces a Command
// plus the shared Config, and Main dispatches on the concrete type.
type Command interface {
	// Name returns the command identifier used for routing. It matches
	// the CLI sub-command name.
	Name() string
}

// RunCommand starts the HTTP server and serves until cancelled.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// StatsCommand prints storage statistics and exits: the content store's own
// record count/bytes, and the {items, size} summary derived from the
// published pages blob.
type StatsCommand struct{}

func (c *StatsCommand) Name() string { return "stats" }
