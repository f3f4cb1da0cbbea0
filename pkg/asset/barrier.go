package asset

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/risekit/pkg/errors"
)

// Join promises every asset from svc and waits for all of them. The first
// rejection fails the barrier with an ErrCodeAsset error and stops the
// remaining waits; the barrier never opens over a failed asset. An empty
// list opens immediately.
func Join(ctx context.Context, svc Service, assets []Asset) error {
	if len(assets) == 0 {
		return nil
	}
	if svc == nil {
		return errors.New(errors.ErrCodeAsset, "%d assets but no asset service", len(assets))
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range assets {
		w := svc.Promise(gctx, a)
		g.Go(func() error {
			select {
			case <-w.Done():
				if err := w.Err(); err != nil {
					return errors.Wrap(errors.ErrCodeAsset, err, "%s", a)
				}
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		// a rejection also cancels gctx
		if ctx.Err() != nil && !errors.Is(err, errors.ErrCodeAsset) {
			return ctx.Err()
		}
		return err
	}
	return nil
}
