package structbind

import (
	"sync"

	"github.com/spf13/viper"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	envPrefix  = "STRUCTBIND"
	envModeKey = "encoding_mode"
)

var (
	modeOnce    sync.Once
	processMode atomic.Int32
)

// Mode returns process-wide encoding mode; STRUCTBIND_ENCODING_MODE is read once on first use
func Mode() spi.EncodingMode {
	modeOnce.Do(loadMode)
	return spi.EncodingMode(processMode.Load())
}

// SetMode sets process-wide encoding mode, encoders already built are kept
func SetMode(mode spi.EncodingMode) {
	modeOnce.Do(func() {})
	processMode.Store(int32(mode))
}

func loadMode() {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	mode, err := spi.ParseEncodingMode(v.GetString(envModeKey))
	if err != nil {
		logging.Logger().Warn("invalid encoding mode, using reflection", zap.Error(err))
	}
	processMode.Store(int32(mode))
}
