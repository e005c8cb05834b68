package worker

import (
	"context"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
)

// Every runs job immediately and then on every tick of interval until ctx
// is done. Job errors are logged and do not stop the loop.
func Every(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	log := logger.Ctx(ctx).With(logger.String("job", name))
	run := func() {
		start := time.Now()
		if err := job(ctx); err != nil && ctx.Err() == nil {
			log.Error("background job failed", logger.Err(err), logger.Duration("elapsed", time.Since(start)))
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			run()
		}
	}
}
