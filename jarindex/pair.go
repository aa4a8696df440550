package jarindex

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// OpenPair indexes the source and destination jars concurrently. Both are
// finished before it returns; the first error wins.
func OpenPair(ctx context.Context, sourcePath, destPath string, opts Options) (source, dest *Index, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = Open(gctx, sourcePath, opts)
		return err
	})
	g.Go(func() error {
		var err error
		dest, err = Open(gctx, destPath, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, dest, nil
}
