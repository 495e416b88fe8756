// Package logging configures the process-wide zerolog logger used by the
// session core and the demo CLI.
package logging

import (
	"io"
	"os"

	"github.com/recordevolution/wampcore/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs a zerolog logger as the package-level log.Logger. It
// writes to a rolling file sink when args.LogFile is set, to a console
// writer on stderr when args.PrettyLogging is set (alongside the file, if
// any), and to plain stderr when neither is set.
func Setup(args *config.CLIArguments) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var writer io.Writer = os.Stderr
	if args.LogFile != "" {
		rollingLogFile := &lumberjack.Logger{
			Filename: args.LogFile,
			MaxSize:  100,
		}
		if args.PrettyLogging {
			writer = io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, rollingLogFile)
		} else {
			writer = rollingLogFile
		}
	} else if args.PrettyLogging {
		writer = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	logger := zerolog.New(writer).With().Caller().Timestamp().Stack().Logger()
	log.Logger = logger

	if args.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Msgf("wampcore-cli arguments: %+v", *args)
}
