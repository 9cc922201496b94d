package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = logrus.New()

// CustomFormatter renders one line per entry:
// Date, Time, Event Source, Event Type, Event ID, Message, [fields], Location.
type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(", %s=%v", k, entry.Data[k]))
		}
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", entry.Caller.File, entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// InitLogger sends log output to a rotating file and stdout. An empty
// logFile logs to stdout only.
func InitLogger(logFile, level string) {
	var out io.Writer = os.Stdout

	if logFile != "" {
		dir := filepath.Dir(logFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0700); err != nil {
				logrus.Fatalf("Failed to create log directory: %v", err)
			}
		}

		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}

	Logger.SetOutput(out)
	Logger.SetFormatter(&CustomFormatter{SystemName: "worknest-api"})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
	Logger.SetReportCaller(true)
}
