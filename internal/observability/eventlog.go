package observability

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// EventTimeLayout is the timestamp format of event log lines.
const EventTimeLayout = "2006-01-02 15:04:05"

// Event represents a single line of the training event log.
type Event struct {
	Time    time.Time
	Level   models.EventLevel
	Message string
}

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since *time.Time
	Level models.EventLevel
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
}

// textEventLog implements EventLog as an append-only text file with one
// "[time] [LEVEL] message" line per event.
type textEventLog struct {
	path string
}

// NewTextEventLog creates an EventLog backed by the text file at path. The
// file is created lazily on the first Write.
func NewTextEventLog(path string) EventLog {
	return &textEventLog{path: path}
}

// FormatEvent renders event as a single log line without the trailing newline.
// Newlines inside the message are flattened so one event is always one line.
func FormatEvent(event Event) string {
	msg := strings.ReplaceAll(event.Message, "\n", " ")
	return fmt.Sprintf("[%s] [%s] %s", event.Time.Format(EventTimeLayout), event.Level, msg)
}

// Write opens the log, appends the event line, syncs and closes the file.
func (l *textEventLog) Write(event Event) (err error) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing event log: %w", cerr)
		}
	}()

	if _, err := f.WriteString(FormatEvent(event) + "\n"); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing event log: %w", err)
	}
	return nil
}

var eventLinePattern = regexp.MustCompile(`^\[([^\]]+)\] \[([A-Z]+)\] ?(.*)$`)

// Read scans the log line by line and returns the events matching filter.
// Lines that do not follow the event format are skipped.
func (l *textEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		event, ok := parseEventLine(scanner.Text())
		if !ok {
			continue
		}
		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return events, nil
}

func parseEventLine(line string) (Event, bool) {
	m := eventLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	ts, err := time.ParseInLocation(EventTimeLayout, m[1], time.Local)
	if err != nil {
		return Event{}, false
	}
	return Event{Time: ts, Level: models.EventLevel(m[2]), Message: m[3]}, true
}

// matchesEventFilter checks whether an event satisfies all filter criteria.
func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	return true
}
