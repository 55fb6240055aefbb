// Package logging builds the zerolog logger shared by the connector.
package logging

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		function := ""
		if fun := runtime.FuncForPC(pc); fun != nil {
			name := fun.Name()
			if slash := strings.LastIndex(name, "/"); slash > 0 {
				name = name[slash+1:]
			}
			function = " " + name + "()"
		}
		return file + ":" + strconv.Itoa(line) + function
	}
}

// Options control logger construction. The zero value writes JSON at info
// level to stdout.
type Options struct {
	Out    io.Writer
	Pretty bool
	Debug  bool
}

// OptionsFromEnv reads PRETTY=1 and DEBUG=1.
func OptionsFromEnv() Options {
	return Options{
		Out:    os.Stdout,
		Pretty: os.Getenv("PRETTY") == "1",
		Debug:  os.Getenv("DEBUG") == "1",
	}
}

// New returns a timestamped logger with caller information.
func New(o Options) zerolog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	if o.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger().Hook(callerHook{})
}

type callerHook struct{}

func (callerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Caller(3)
}
