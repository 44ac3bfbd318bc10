package log

import (
	"fmt"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lijingwei9060/ether-packet/internal/config"
)

// fanout writes every log line to all of its writers. A failing writer does
// not stop the others and the last error is reported.
type fanout []io.Writer

func (f fanout) Write(p []byte) (n int, err error) {
	for _, w := range f {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

// newAppender returns console, plus a size-rotated file when one is configured.
func newAppender(console io.Writer, outputs config.LogOutputsConfig) (io.Writer, error) {
	fc := outputs.File
	if !fc.Enabled {
		return console, nil
	}
	if fc.Path == "" {
		return nil, fmt.Errorf("file output requires 'path' field")
	}
	return fanout{console, &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.Rotation.MaxSizeMB, // megabytes
		MaxBackups: fc.Rotation.MaxBackups,
		MaxAge:     fc.Rotation.MaxAgeDays, // days
		Compress:   fc.Rotation.Compress,
	}}, nil
}
