// Package logging sets up the client's logrus logger. Output goes to a file
// because the TUI owns the terminal while it runs.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"cinema-ticket-cli/config"
)

// New opens (or creates) the log file named by cfg, falling back to
// <user cache dir>/cinema-ticket-cli/client.log. The returned closer must be
// called on exit.
func New(cfg config.Config) (*logrus.Logger, io.Closer, error) {
	path, err := logPath(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(file)
	log.SetLevel(parseLevel(cfg.LogLevel))
	return log, file, nil
}

// Discard returns a logger that writes nowhere; used by tests and as the
// fallback when the log file cannot be opened.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func parseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func logPath(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.LogFile) != "" {
		return cfg.LogFile, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.AppName, "client.log"), nil
}
