package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatrelay/common"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var once sync.Once

var log zerolog.Logger

const (
	logFilePrefix   = "chatrelay-"
	logFileSuffix   = ".log"
	maxLogFileCount = 7
)

// GetLogLevel reads CHATRELAY_LOG_LEVEL, accepting either a zerolog level
// name ("debug") or its numeric value ("0"). Defaults to info.
func GetLogLevel() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv("CHATRELAY_LOG_LEVEL"))
	if raw == "" {
		return zerolog.InfoLevel
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return zerolog.Level(n)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// useJSONConsole is true when CHATRELAY_LOG_FORMAT=json, for running under a
// log collector instead of a terminal.
func useJSONConsole() bool {
	return strings.EqualFold(os.Getenv("CHATRELAY_LOG_FORMAT"), "json")
}

func Get() zerolog.Logger {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var console io.Writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		if useJSONConsole() {
			console = os.Stdout
		}

		output := console
		stateHome, err := common.GetStateHome()
		if err == nil {
			fileWriter, err := common.NewDailyRotatingWriter(stateHome, logFilePrefix, logFileSuffix, maxLogFileCount)
			if err == nil {
				output = zerolog.MultiLevelWriter(console, fileWriter)
			}
		}

		log = zerolog.New(output).
			Level(GetLogLevel()).
			With().
			Timestamp().
			Str("git_revision", gitRevision()).
			Logger()
	})

	return log
}

func gitRevision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, v := range buildInfo.Settings {
		if v.Key == "vcs.revision" {
			return v.Value
		}
	}
	return ""
}

// Ctx returns the request-scoped logger stored in ctx, falling back to the
// process logger when none was attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		root := Get()
		return &root
	}
	return l
}
