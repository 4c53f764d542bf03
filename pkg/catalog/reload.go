package catalog

import (
	"context"
	"time"

	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
)

// SourceFunc resolves the dump sources for one load. It runs on every
// reload so new dump files are picked up.
type SourceFunc func(ctx context.Context) ([]dump.Source, error)

// Watch reloads the catalog every interval until ctx is done. Failed
// reloads are logged and keep the current snapshot. A non-positive interval
// returns immediately.
func (c *Catalog) Watch(ctx context.Context, interval time.Duration, sources SourceFunc) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reload(ctx, sources)
		}
	}
}

func (c *Catalog) reload(ctx context.Context, sources SourceFunc) {
	resolved, err := sources(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "resolve dump sources failed", "error", err)

		return
	}

	_, err = c.Load(ctx, resolved)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog reload failed", "error", err)
	}
}
