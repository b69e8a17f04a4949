package diff

import (
	"context"

	"github.com/sdejongh/ddiff/pkg/logging"
)

// Registry is an ordered, immutable list of engines
type Registry struct {
	engines []Engine
}

// NewRegistry creates a registry. Earlier engines win ties.
func NewRegistry(engines ...Engine) *Registry {
	return &Registry{engines: append([]Engine(nil), engines...)}
}

// DefaultRegistry returns every built-in engine in selection order
func DefaultRegistry() *Registry {
	return NewRegistry(
		Directory{},
		ByteFile{},
		VersionedFile{},
		TextFile{},
		MsiDatabase{},
		Cabinet{},
		MsiPatch{},
	)
}

// Engines returns the registered engines in order
func (r *Registry) Engines() []Engine {
	return append([]Engine(nil), r.engines...)
}

// Select returns the engine with the strictly highest positive score, or nil
func (r *Registry) Select(env *Env, a, b string) Engine {
	var best Engine
	bestScore := 0.0
	for _, e := range r.engines {
		if s := e.Score(env, a, b); s > bestScore {
			best, bestScore = e, s
		}
	}

	if env != nil && env.Logger != nil {
		fields := logging.Fields{"a": a, "b": b, "score": bestScore}
		if best != nil {
			fields["engine"] = best.Name()
		}
		env.Logger.Debug(context.Background(), "engine selected", fields)
	}
	return best
}
