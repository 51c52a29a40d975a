package codegen

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"go.uber.org/zap"
)

// WithFs sets file system used to persist units
func WithFs(fs afero.Fs) GeneratorOption {
	return func(g *Generator) {
		g.fs = fs
	}
}

// Persist writes unit source under outputRoot/<key namespace>/<name>.go and returns the file location
func (g *Generator) Persist(key string, unit *Unit, outputRoot string) (string, error) {
	if len(unit.Source) == 0 {
		return "", errors.Mark(errors.Newf("unit %v has no source", key), spi.ErrGeneration)
	}
	segments := []string{outputRoot}
	for _, segment := range spi.KeyNamespace(key) {
		segments = append(segments, strings.ToLower(segment))
	}
	dir := path.Join(segments...)
	if err := g.fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "failed to create %v", dir), spi.ErrGeneration)
	}
	location := path.Join(dir, unit.Name+".go")
	if err := afero.WriteFile(g.fs, location, unit.Source, 0o644); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "failed to write %v", location), spi.ErrGeneration)
	}
	logging.Logger().Info("persisted encoder unit", zap.String("key", key), zap.String("location", location))
	return location, nil
}
