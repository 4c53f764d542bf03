package dump

import (
	"context"
	"fmt"
)

// ParseSources opens and parses every source in order, appending to p.
// It stops at the first failing source; projects of sources parsed before
// the failure stay in p.
func ParseSources(ctx context.Context, p *Parser, sources []Source) (Stats, error) {
	var total Stats

	for _, src := range sources {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return total, fmt.Errorf("parse sources: %w", ctxErr)
		}

		stats, err := parseSource(ctx, p, src)
		if err != nil {
			return total, err
		}

		total = total.Add(stats)
	}

	return total, nil
}

func parseSource(ctx context.Context, p *Parser, src Source) (Stats, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	return p.Parse(src.Name(), rc)
}
