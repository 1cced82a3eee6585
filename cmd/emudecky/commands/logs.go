package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/internal/logger"
)

// textTimestampLayout matches the prefix written by the text log handler.
const textTimestampLayout = "2006-01-02 15:04:05"

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server logs",
	Long: `Display and optionally follow the EmuDecky server logs.

This command reads the log file set in logging.output. If the server logs to
stdout/stderr, there is no file to read and the command says so.

Examples:
  # Show last 100 lines (default)
  emudecky logs

  # Follow logs in real-time
  emudecky logs -f

  # Show logs since a specific time
  emudecky logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}

	logOutput := cfg.Logging.Output
	if logOutput == "stdout" || logOutput == "stderr" {
		return fmt.Errorf("server is configured to log to %s, not a file\nSet 'logging.output' to a file path to use this command", logOutput)
	}

	if _, err := os.Stat(logOutput); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nThe server may not have started yet or is logging elsewhere", logOutput)
	}

	var since time.Time
	if logsSince != "" {
		since, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if err := showLogs(out, logOutput, logsLines, since); err != nil {
		return err
	}
	if !logsFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)...\n", logOutput)
	return followLogs(ctx, out, logOutput)
}

// showLogs writes the last lines of the log file, skipping entries older
// than since.
func showLogs(w io.Writer, logFile string, lines int, since time.Time) error {
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	tail := tailLines(file, lines, since)
	if tail.err != nil {
		return fmt.Errorf("error reading log file: %w", tail.err)
	}

	for _, line := range tail.lines {
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

type tailResult struct {
	lines []string
	err   error
}

// tailLines keeps a ring of the last n matching lines of r.
func tailLines(r io.Reader, n int, since time.Time) tailResult {
	if n <= 0 {
		return tailResult{}
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	// Long attribute lists produce long lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		if len(ring) == n {
			ring = append(ring[1:], line)
		} else {
			ring = append(ring, line)
		}
	}
	return tailResult{lines: ring, err: scanner.Err()}
}

// followLogs writes lines appended to the log file until ctx is done.
func followLogs(ctx context.Context, w io.Writer, logFile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logFile); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	reader := bufio.NewReader(file)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						// A partial line is printed now; its end arrives with the next write.
						if line != "" {
							_, _ = fmt.Fprint(w, line)
						}
						break
					}
					_, _ = fmt.Fprint(w, line)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// extractTimestamp returns the time of a log line written by either log
// format: the "[2006-01-02 15:04:05]" prefix of the text handler (local
// time) or the "time" field of the JSON handler. It returns the zero time
// when neither is found.
func extractTimestamp(line string) time.Time {
	line = strings.TrimPrefix(line, logger.DefaultPrefix+" ")
	if len(line) > len(textTimestampLayout)+1 && line[0] == '[' {
		raw := line[1 : 1+len(textTimestampLayout)]
		if t, err := time.ParseInLocation(textTimestampLayout, raw, time.Local); err == nil {
			return t
		}
	}

	const timeKey = `"time":"`
	if idx := strings.Index(line, timeKey); idx >= 0 {
		rest := line[idx+len(timeKey):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}
