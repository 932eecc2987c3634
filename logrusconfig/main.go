package logrusconfig

import (
	"flag"
	"fmt"
	"io"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

// InitParam registers the loglevel flag on fs
func InitParam(fs *flag.FlagSet, def logrus.Level) *int {
	return fs.Int("loglevel", int(def), "The loglevel to use. Valid values are from 0 to 6. Higher values output more information")
}

// Level converts a loglevel flag value
func Level(value int) (logrus.Level, error) {
	if value < int(logrus.PanicLevel) || value > int(logrus.TraceLevel) {
		return 0, fmt.Errorf("invalid loglevel %d", value)
	}
	return logrus.Level(value), nil
}

// GetLogger returns an entry writing to out. Entries derived from it carry
// prefix.
func GetLogger(out io.Writer, prefix string, level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	customFormatter := new(prefixed.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	customFormatter.PrefixPadding = 20
	customFormatter.SpacePadding = 50
	logger.SetFormatter(customFormatter)
	return logger.WithField("prefix", prefix)
}
