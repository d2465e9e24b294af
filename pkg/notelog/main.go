package notelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/notelog/notelog/pkg/models"
)

// Main is the entry point behind cmd/notelog. It takes a context for
// cancellation and the command line arguments, so tests can drive the full
// application without building a binary.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *StatsCommand:
		if err := app.PrintStats(ctx, os.Stdout); err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}

// PrintStats writes the store-level and pages-blob statistics as JSON.
func (a *App) PrintStats(ctx context.Context, w *os.File) error {
	logStats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}

	out := map[string]any{"log": logStats}
	if id, ok := a.pointers.Resolve(models.ResourcePages); ok {
		raw, err := a.store.Fetch(ctx, id)
		if err != nil {
			return err
		}
		var ps struct {
			Pages []json.RawMessage `json:"pages"`
		}
		if err := json.Unmarshal(raw, &ps); err == nil {
			out["pages"] = map[string]int{"items": len(ps.Pages), "size": len(raw)}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
