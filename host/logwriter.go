package host

import (
	"bytes"
	"log/slog"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reglet-dev/asmbridge/log"
)

// logWriter receives the guest's stderr and forwards each complete line
// to a zap logger. Lines that are not log records (a runtime panic, for
// instance) are logged verbatim at warn level.
type logWriter struct {
	logger *zap.Logger
	mu     sync.Mutex
	buf    []byte
}

func newLogWriter(logger *zap.Logger) *logWriter {
	return &logWriter{logger: logger.Named("guest")}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line that never got its newline.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *logWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}

	msg, err := log.ParseMessage(line)
	if err != nil {
		w.logger.Warn("guest stderr", zap.ByteString("line", line))
		return
	}

	fields := make([]zap.Field, 0, len(msg.Attrs)+1)
	for _, attr := range msg.Attrs {
		fields = append(fields, zap.String(attr.Key, attr.Value))
	}
	if msg.Source != "" {
		fields = append(fields, zap.String("source", msg.Source))
	}
	if ce := w.logger.Check(zapLevel(msg.SlogLevel()), msg.Message); ce != nil {
		ce.Time = msg.Timestamp
		ce.Write(fields...)
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level < slog.LevelInfo:
		return zapcore.DebugLevel
	case level < slog.LevelWarn:
		return zapcore.InfoLevel
	case level < slog.LevelError:
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}
