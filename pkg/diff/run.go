package diff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/models"
)

// Run selects an engine for the two inputs and diffs them.
// When no engine applies the result has StatusUnsupported and the error wraps ErrNoEngine.
func Run(ctx context.Context, env *Env, a, b string) (*models.DiffResult, error) {
	result := &models.DiffResult{
		RunID:     uuid.NewString(),
		Input1:    a,
		Input2:    b,
		StartTime: time.Now(),
	}
	finish := func(status models.DiffStatus, err error) (*models.DiffResult, error) {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		result.Stats = env.Stats()
		result.Status = status
		if err != nil {
			result.Error = err.Error()
		}
		return result, err
	}

	engine := env.Registry.Select(env, a, b)
	if engine == nil {
		var names []string
		for _, e := range env.Registry.Engines() {
			names = append(names, e.Name())
		}
		env.Logger.Debug(ctx, "no engine accepts the inputs", logging.Fields{
			"input1":  a,
			"input2":  b,
			"engines": strings.Join(names, ","),
		})
		return finish(models.StatusUnsupported, fmt.Errorf("%w: %s and %s", ErrNoEngine, a, b))
	}
	result.Engine = engine.Name()

	logger := env.Logger.WithFields(logging.Fields{"run_id": result.RunID})
	logger.Info(ctx, "diff started", logging.Fields{
		"input1":     a,
		"input2":     b,
		"engine":     engine.Name(),
		"block_size": env.Blocks().BlockSize(),
		"workers":    env.Options.Workers,
	})

	env.compared(a)
	r := NewReport()
	differs, err := engine.Diff(ctx, env, a, b, r)
	if err != nil {
		logger.Error(ctx, "diff failed", err, nil)
		return finish(models.StatusFailed, err)
	}
	result.Lines = r.Lines()

	result, _ = finish(models.StatusFor(differs), nil)
	logger.Info(ctx, "diff completed", logging.Fields{
		"status":   string(result.Status),
		"compared": result.Stats.ItemsCompared,
		"duration": result.Duration.String(),
	})
	return result, nil
}
