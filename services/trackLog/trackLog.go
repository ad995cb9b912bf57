package trackLog

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/services/log"
)

var (
	logTracker *logrus.Entry
	once       sync.Once
)

// LogTrackInit sets up the process-wide tracker. Safe to call more than once.
func LogTrackInit() {
	once.Do(func() {
		var trackerService log.LogService
		logger := trackerService.LoggerInit("tracker")
		logTracker = logger.WithFields(logrus.Fields{"task": "track"})
	})
}

// Tracker returns the process-wide entry, initialising it on first use.
func Tracker() *logrus.Entry {
	LogTrackInit()
	return logTracker
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Tracker().WithFields(fields)
}

func Info(message string) {
	Tracker().Info(message)
}

func Warn(message string) {
	Tracker().Warn(message)
}

func Error(message string) {
	Tracker().Error(message)
}
