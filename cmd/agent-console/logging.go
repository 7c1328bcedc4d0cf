/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Shikhar Lohiya
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	consoleLog *logrus.Entry
	sdkLog     *logrus.Entry
	logFile    *lumberjack.Logger
)

// initLogging configures the console and SDK loggers with rotation.
func initLogging(cfg *ini.File) {
	sec := cfg.Section("logging")

	consoleMin := toLogrusLevel(sec.Key("console_min_level").MustInt(2))
	fileMin := toLogrusLevel(sec.Key("file_min_level").MustInt(1))

	logFile = &lumberjack.Logger{
		Filename:   "agent-console.log",
		MaxSize:    100, // megabytes
		MaxBackups: 1,
	}

	consoleLog = newLogger("console", toLogrusLevel(sec.Key("console").MustInt(1)), consoleMin, fileMin, logFile)
	sdkLog = newLogger("sdk", toLogrusLevel(sec.Key("sdk").MustInt(2)), consoleMin, fileMin, logFile)
}

// closeLogging flushes and closes log files.
func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// writerHook writes logs to the specified writer for provided levels.
type writerHook struct {
	Writer    io.Writer
	LogLevels []logrus.Level
}

func (h *writerHook) Fire(e *logrus.Entry) error {
	line, err := e.String()
	if err != nil {
		return err
	}
	_, err = h.Writer.Write([]byte(line))
	return err
}

func (h *writerHook) Levels() []logrus.Level {
	return h.LogLevels
}

func newLogger(name string, level, consoleMin, fileMin logrus.Level, file io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.AddHook(&writerHook{Writer: os.Stdout, LogLevels: availableLevels(consoleMin)})
	logger.AddHook(&writerHook{Writer: file, LogLevels: availableLevels(fileMin)})
	return logger.WithField("name", name)
}

func availableLevels(min logrus.Level) []logrus.Level {
	levels := []logrus.Level{}
	for _, l := range logrus.AllLevels {
		if l <= min {
			levels = append(levels, l)
		}
	}
	return levels
}

func toLogrusLevel(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.TraceLevel
	case v == 1:
		return logrus.DebugLevel
	case v == 2:
		return logrus.InfoLevel
	case v == 3:
		return logrus.WarnLevel
	case v == 4:
		return logrus.ErrorLevel
	case v == 5:
		return logrus.FatalLevel
	default:
		return logrus.PanicLevel // off
	}
}

// entryLogger adapts a *logrus.Entry to the SDK's Printf-based Logger.
type entryLogger struct {
	entry *logrus.Entry
}

func (l *entryLogger) Printf(format string, v ...any) {
	l.entry.Infof(format, v...)
}
