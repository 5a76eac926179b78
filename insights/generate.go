package insights

import (
	"context"
	"time"

	"reflectionsmatch/tools"
)

// generate wraps a Generator call with latency accounting.
func generate(ctx context.Context, gen tools.Generator, purpose string, req tools.GenerateRequest) (string, error) {
	start := time.Now()
	reply, err := gen.Generate(ctx, req)
	generateLatency.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	return reply, err
}
