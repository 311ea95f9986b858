package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"adwords-report/config"
	"adwords-report/utils"
)

const stopTimeout = 15 * time.Second

var (
	pidPath = filepath.Join(utils.GetProjectRoot(), "pid")
	pidFile = filepath.Join(pidPath, "report-gateway.pid")
	binFile = filepath.Join(utils.GetProjectRoot(), "bin", "report-gateway")
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:           "service",
		Short:         "Start, stop and reload the report gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return utils.EnsureDirExists(pidPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "configuration file passed to the gateway")

	root.AddCommand(
		&cobra.Command{Use: "start", RunE: func(*cobra.Command, []string) error { return start(cfgFile) }},
		&cobra.Command{Use: "stop", RunE: func(*cobra.Command, []string) error { return stop() }},
		&cobra.Command{Use: "reload", RunE: func(*cobra.Command, []string) error { return signalRunning(syscall.SIGHUP, "reloaded") }},
		&cobra.Command{Use: "restart", RunE: func(*cobra.Command, []string) error {
			if err := stop(); err != nil && !errors.Is(err, errNotRunning) {
				return err
			}
			return start(cfgFile)
		}},
		&cobra.Command{Use: "status", RunE: func(*cobra.Command, []string) error {
			pid, err := runningPID()
			if err != nil {
				return err
			}
			fmt.Printf("report-gateway running, pid=%d\n", pid)
			return nil
		}},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errNotRunning = errors.New("report-gateway is not running")

func start(cfgFile string) error {
	if pid, err := runningPID(); err == nil {
		return fmt.Errorf("report-gateway already running, pid=%d", pid)
	}
	cmd := exec.Command(binFile, "-config", cfgFile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		return err
	}
	fmt.Printf("report-gateway started, pid=%d\n", cmd.Process.Pid)
	return nil
}

// stop sends SIGTERM and waits for the workers to drain.
func stop() error {
	pid, err := runningPID()
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	deadline := time.Now().Add(stopTimeout)
	for alive(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("report-gateway (pid %d) did not stop within %s", pid, stopTimeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
	os.Remove(pidFile)
	fmt.Println("report-gateway stopped.")
	return nil
}

func signalRunning(sig syscall.Signal, done string) error {
	pid, err := runningPID()
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	fmt.Println("report-gateway " + done + ".")
	return nil
}

// runningPID reads the pid file. A stale file is removed.
func runningPID() (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, errNotRunning
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !alive(pid) {
		os.Remove(pidFile)
		return 0, errNotRunning
	}
	return pid, nil
}

func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
