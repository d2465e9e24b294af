package notelog

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Parse parses command line arguments and returns the command to execute,
// the shared application configuration, and any error. Flags may come
// before the sub-command; environment variables fill in what flags leave
// unset.
func Parse(args []string) (Command, *Config, error) {
	flagSet := flag.NewFlagSet("notelog", flag.ContinueOnError)

	var (
		port       = flagSet.String("port", "8090", "Server port")
		dataDir    = flagSet.String("data-dir", defaultDataDir(), "Directory for the content log and pointer state")
		gateway    = flagSet.String("gateway", "", "Remote content gateway base URL (overrides the local log)")
		surrealURL = flagSet.String("surreal-url", "", "SurrealDB URL for the content store (e.g. ws://localhost:8000/rpc)")
		debounce   = flagSet.Duration("debounce", 0, "Auto-save debounce window (default 3s)")
		keyID      = flagSet.String("key-id", "", "Upload signing key id (empty = anonymous uploads)")
		verbose    = flagSet.Bool("verbose", false, "Enable debug logging")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		return nil, nil, fmt.Errorf(`subcommand required

Usage: notelog [flags] <command>

Commands:
  run       Start the notelog server
  stats     Print storage statistics and exit

Examples:
  notelog run                                  # Local content log under the data dir
  notelog -gateway https://gw.example.com run  # Persist through a remote gateway
  notelog -surreal-url ws://localhost:8000/rpc run
  notelog -debounce 5s run
  notelog -key-id mykey run                    # Signed uploads (secret from NOTELOG_KEY_SECRET)
  notelog stats`)
	}

	var cmd Command
	switch remaining[0] {
	case "run":
		cmd = &RunCommand{}
	case "stats":
		cmd = &StatsCommand{}
	default:
		return nil, nil, fmt.Errorf("unknown command: %s\n\nValid commands: run, stats", remaining[0])
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	config := &Config{
		ServerPort:     *port,
		DataDir:        getEnv("NOTELOG_DATA_DIR", *dataDir),
		GatewayURL:     getEnv("NOTELOG_GATEWAY_URL", *gateway),
		SurrealURL:     getEnv("NOTELOG_SURREALDB_URL", *surrealURL),
		SurrealNS:      getEnv("NOTELOG_SURREALDB_NS", "notelog"),
		SurrealDB:      getEnv("NOTELOG_SURREALDB_DB", "notelog"),
		SurrealUser:    getEnv("NOTELOG_SURREALDB_USER", "root"),
		SurrealPass:    getEnv("NOTELOG_SURREALDB_PASS", "root"),
		Debounce:       *debounce,
		IdentityKeyID:  getEnv("NOTELOG_KEY_ID", *keyID),
		IdentitySecret: os.Getenv("NOTELOG_KEY_SECRET"),
		Logger:         logger,
	}

	return cmd, config, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".notelog"
	}
	return home + "/.notelog"
}
