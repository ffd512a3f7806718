package config

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var tokenPattern = regexp.MustCompile(`token=[^&\s"']+`)

// redactWriter masks token query parameters before they reach the output.
type redactWriter struct {
	w io.Writer
}

func (r redactWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write(tokenPattern.ReplaceAll(p, []byte("token=REDACTED"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetupLogger configures the global zerolog logger. Development gets pretty
// console output on stderr, everything else JSON.
func (c *Config) SetupLogger() {
	var out io.Writer = redactWriter{w: os.Stderr}
	if c.IsDevelopment() {
		out = zerolog.ConsoleWriter{
			Out:        redactWriter{w: os.Stderr},
			TimeFormat: time.RFC3339,
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	level := zerolog.InfoLevel
	if c.LogLevel != "" {
		parsedLevel, err := zerolog.ParseLevel(c.LogLevel)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}
