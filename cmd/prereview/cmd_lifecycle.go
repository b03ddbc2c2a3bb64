package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

const pidFileName = "prereview.pid"

var errNotRunning = errors.New("daemon is not running")

// pidFile records the serving daemon's process id in the data dir.
type pidFile string

func pidFileIn(dataDir string) pidFile {
	return pidFile(filepath.Join(dataDir, pidFileName))
}

func (p pidFile) write() error {
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

func (p pidFile) remove() { os.Remove(string(p)) }

// process returns the recorded daemon if it is still alive.
func (p pidFile) process() (*os.Process, error) {
	data, err := os.ReadFile(string(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotRunning
	}
	if err != nil {
		return nil, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("PID file %s is corrupt: %w", p, err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, err
	}
	if proc.Signal(syscall.Signal(0)) != nil {
		return nil, fmt.Errorf("%w (stale PID %d)", errNotRunning, pid)
	}
	return proc, nil
}

func init() {
	rootCmd.AddCommand(
		statusCmd,
		signalCommand("stop", "Stop the running daemon", syscall.SIGTERM, "SIGTERM"),
		signalCommand("restart", "Restart the running daemon in place", syscall.SIGHUP, "SIGHUP"),
	)
}

func signalCommand(use, short string, sig syscall.Signal, name string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := pidFileIn(loadConfig().DataDir).process()
			if err != nil {
				return err
			}
			if err := proc.Signal(sig); err != nil {
				return fmt.Errorf("signal daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to daemon (PID %d).\n", name, proc.Pid)
			return nil
		},
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, err := pidFileIn(loadConfig().DataDir).process()
		if errors.Is(err, errNotRunning) {
			fmt.Fprintln(cmd.OutOrStdout(), "stopped")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "running (PID %d)\n", proc.Pid)
		return nil
	},
}
