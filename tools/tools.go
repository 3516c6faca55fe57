// Package tools defines the built-in eulerbox tools and registers them
// against a registry. Tool bodies stay thin: they pull typed values off
// the invocation, log what they are about to do, and delegate to the
// dataset and fog services.
package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/euler-vision/eulerbox/dataset"
	"github.com/euler-vision/eulerbox/fog"
	"github.com/euler-vision/eulerbox/registry"
)

// Services are the collaborators the built-in tools delegate to.
// Swappable for tests.
type Services struct {
	Indexer  dataset.Indexer
	Splitter dataset.Splitter
	Fog      fog.Engine
}

// Defaults returns the production service set: local zip/directory
// dataset handling and the CPU fog simulator.
func Defaults(log *zap.Logger) Services {
	local := dataset.NewLocal()
	return Services{
		Indexer:  local,
		Splitter: local,
		Fog:      fog.NewSimulator(log),
	}
}

// RegisterAll registers every built-in tool. Registration is all or
// nothing: the first failure aborts.
func RegisterAll(reg *registry.Registry, svc Services, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	builders := []func(Services, *zap.Logger) (registry.Tool, error){
		sampleDatasetTool,
		splitDSTool,
		foggifyTool,
	}
	for _, build := range builders {
		t, err := build(svc, log)
		if err != nil {
			return err
		}
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name, err)
		}
	}
	return nil
}
