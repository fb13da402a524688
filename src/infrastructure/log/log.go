package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type loggerKeyType string

const (
	entryKey         loggerKeyType = "loggerWithCorrelation"
	correlationIDKey loggerKeyType = "correlationId"
)

const WarnLevel = logrus.WarnLevel
const InfoLevel = logrus.InfoLevel
const ErrorLevel = logrus.ErrorLevel

type Field struct {
	URL            string
	HostName       string
	HTTPStatusCode int
	Duration       int64
	HTTPMethod     string
	ClientIP       string
	Message        string
	Extra          map[string]any
}

type Logger interface {
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Exception(ctx context.Context, message string, error error)
	Fatal(ctx context.Context, message string, error error)
	InfoWithExtra(ctx context.Context, message string, dictionary map[string]any)
	WarnWithExtra(ctx context.Context, message string, dictionary map[string]any)
	ResponseWithLevel(ctx context.Context, withFields *Field, level logrus.Level)
	WithCorrelationID(ctx context.Context, id string) context.Context
}

type logger struct {
	logRus *logrus.Entry
}

func NewLogger() Logger {
	return NewLoggerWithOutput(os.Stdout, InfoLevel)
}

// NewLoggerWithOutput builds a JSON logger writing to out; tests pass a buffer.
func NewLoggerWithOutput(out io.Writer, level logrus.Level) Logger {
	var log = logrus.New()
	log.SetOutput(out)
	log.SetFormatter(new(jsonFormatter))
	log.SetLevel(level)
	return &logger{logRus: logrus.NewEntry(log)}
}

func (l *logger) Info(ctx context.Context, message string) {
	l.withContext(ctx).WithFields(logrus.Fields{"DateTime": time.Now()}).Info(message)
}

func (l *logger) Warn(ctx context.Context, message string) {
	l.withContext(ctx).WithFields(logrus.Fields{"DateTime": time.Now()}).Warn(message)
}

func (l *logger) InfoWithExtra(ctx context.Context, message string, dictionary map[string]any) {
	l.withContext(ctx).WithFields(toFields(dictionary)).Info(message)
}

func (l *logger) WarnWithExtra(ctx context.Context, message string, dictionary map[string]any) {
	l.withContext(ctx).WithFields(toFields(dictionary)).Warn(message)
}

func (l *logger) Exception(ctx context.Context, message string, err error) {
	l.withContext(ctx).WithFields(logrus.Fields{
		"DateTime":  time.Now(),
		"Exception": err}).Error(message)
}

func (l *logger) Fatal(ctx context.Context, message string, err error) {
	l.Exception(ctx, message, err)
	os.Exit(-1)
}

func (l *logger) ResponseWithLevel(ctx context.Context, withFields *Field, level logrus.Level) {
	var fields = logrus.Fields{
		"DateTime":       time.Now(),
		"HttpMethod":     withFields.HTTPMethod,
		"HttpStatusCode": withFields.HTTPStatusCode,
		"Duration":       withFields.Duration,
		"HostName":       withFields.HostName,
		"ClientIp":       withFields.ClientIP,
		"Url":            withFields.URL,
	}

	for key, value := range withFields.Extra {
		fields[key] = value
	}

	l.withContext(ctx).WithFields(fields).Logln(level, withFields.Message)
}

func (l *logger) WithCorrelationID(ctx context.Context, id string) context.Context {
	entry := l.withContext(ctx).WithFields(logrus.Fields{"CorrelationId": id})
	ctx = context.WithValue(ctx, correlationIDKey, id)
	return context.WithValue(ctx, entryKey, entry)
}

// CorrelationID returns the id attached by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

func (l *logger) withContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return l.logRus
	}
	if entry, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
		return entry
	}
	return l.logRus
}

func toFields(dictionary map[string]any) logrus.Fields {
	var fields = logrus.Fields{"DateTime": time.Now()}
	for key, value := range dictionary {
		fields[key] = value
	}
	return fields
}

type jsonFormatter struct{}

func (*jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+2)
	for k, v := range entry.Data {
		data[k] = v
	}
	data["Message"] = entry.Message
	data["Level"] = entry.Level.String()

	if exc, ok := data["Exception"]; ok {
		data["Exception"] = fmt.Sprint(exc)
	}

	serialized, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON, %w", err)
	}

	return append(serialized, '\n'), nil
}
