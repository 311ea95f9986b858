package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// RootEnv overrides the project root used to resolve config, log and report
// directories.
const RootEnv = "ADWORDS_REPORT_ROOT"

func GetProjectRoot() string {
	if env := os.Getenv(RootEnv); env != "" {
		return env
	}
	executable, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to get executable: %v", err)
	}
	dir := filepath.Dir(executable)
	return filepath.Clean(filepath.Join(dir, ".."))
}

// ResolvePath returns p unchanged when absolute, otherwise joined to the
// project root.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetProjectRoot(), p)
}

func EnsureDirExists(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// LogToFile sends the standard logger to <root>/log/<filename>. A previous
// file of the same name is moved to log/archives with a timestamp suffix.
func LogToFile(filename string) (*os.File, error) {
	logDir := filepath.Join(GetProjectRoot(), "log")
	if err := EnsureDirExists(logDir); err != nil {
		return nil, err
	}
	logFileName := filepath.Join(logDir, filename)
	if _, err := os.Stat(logFileName); err == nil {
		archiveDir := filepath.Join(logDir, "archives")
		if err := EnsureDirExists(archiveDir); err != nil {
			return nil, err
		}
		archived := filepath.Join(archiveDir, filename+"."+time.Now().Format("2006-01-02-15-04-05"))
		if err := os.Rename(logFileName, archived); err != nil {
			return nil, err
		}
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(logFile))
	return logFile, nil
}
