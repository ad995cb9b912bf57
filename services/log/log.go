package log

import (
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"
	"github.com/zennieheo/hackathon2024-BE/structs"
	"github.com/zennieheo/hackathon2024-BE/utils"
	"gopkg.in/go-extras/elogrus.v7"
)

const hostName = "intake-ledger"

type LogService struct {
	// Dir is the root of the per-day log folders; defaults to ./logs.
	Dir string
}

// LoggerInit builds a logger for one named stream (a task, a component).
// Output goes to stdout and, when enabled, to logs/<day>/<name>.log.
func (l *LogService) LoggerInit(name string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	config := utils.EnvConfig
	if config == nil {
		logger.Out = os.Stdout
		return logger
	}

	logger.Out = os.Stdout
	if config.Log.FileEnable == 1 {
		if file, err := l.openFile(name); err != nil {
			logger.WithError(err).Warn("log file unavailable, using stdout only")
		} else {
			logger.Out = io.MultiWriter(os.Stdout, file)
		}
	}

	l.addHooks(logger, config)
	return logger
}

func (l *LogService) openFile(name string) (*os.File, error) {
	dir := l.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = path.Join(wd, "logs")
	}
	logFilePath := path.Join(dir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(logFilePath, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := path.Join(logFilePath, name+".log")
	return os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func (l *LogService) addHooks(logger *logrus.Logger, config *structs.EnvironmentModel) {
	if config.Log.ElkEnable == 1 {
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{config.Log.ElkURL},
		})
		if err != nil {
			logger.Debug(err.Error())
		} else if hook, err := elogrus.NewAsyncElasticHook(client, hostName, logrus.DebugLevel, config.Log.ElkIndex); err != nil {
			logger.Debug(err.Error())
		} else {
			logger.Hooks.Add(hook)
		}
	}

	if config.Log.LogstashEnable == 1 {
		conn, err := net.Dial("udp", config.Log.LogstashURL)
		if err != nil {
			logger.Debug(err)
		} else {
			fields := logrus.Fields{"type": hostName}
			if config.Log.LogstashIndex != "" {
				fields["index"] = config.Log.LogstashIndex
			}
			hook := logrustash.New(conn, logrustash.DefaultFormatter(fields))
			logger.Hooks.Add(hook)
		}
	}
}
