package app

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// InitLogger applies logger.level and logger.format. Unknown levels fall back
// to info, unknown formats to text.
func InitLogger() {
	logLevel := strings.ToLower(Config.Logger.Level)
	log.Debug("[LOGGER] Initializing logger with level: ", logLevel)

	level, err := log.ParseLevel(logLevel)
	if err != nil || level > log.DebugLevel {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(Config.Logger.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	log.Info("[LOGGER] Logger initialized with level: ", level.String())
}
