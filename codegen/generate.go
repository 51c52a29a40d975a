package codegen

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/spi"
	"golang.org/x/sync/errgroup"
)

// Generate synthesizes and persists units for supplied types, the first failure aborts the pass
func (g *Generator) Generate(ctx context.Context, outputRoot string, types ...reflect.Type) ([]string, error) {
	locations := make([]string, len(types))
	group, ctx := errgroup.WithContext(ctx)
	for i, rType := range types {
		i, rType := i, rType
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := spi.EncoderCacheKey(rType)
			unit, err := g.Synthesize(key, rType)
			if err == nil {
				locations[i], err = g.Persist(key, unit, outputRoot)
			}
			if err != nil {
				return errors.Wrapf(err, "failed to generate %v", rType)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return locations, nil
}
