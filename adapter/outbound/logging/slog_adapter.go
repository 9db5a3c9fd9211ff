package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajkula/GoAutoSync/config"
)

type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// represents a single log entry to be processed asynchronously
type LogMessage struct {
	Level LogLevel
	Msg   string
	Args  []any
	Time  time.Time
}

// implements the Logger port on top of log/slog, with asynchronous
// processing so upload goroutines never block on output
type SlogAdapter struct {
	logger    *slog.Logger
	level     atomic.Int32
	logChan   chan LogMessage
	ctx       context.Context
	cancel    context.CancelFunc
	slogLevel *slog.LevelVar
	dropped   atomic.Int64
	done      chan struct{}
	stopOnce  sync.Once
}

func NewSlogAdapter(cfg *config.Config) *SlogAdapter {
	return newSlogAdapter(cfg, outputWriter(cfg.Logging.Output))
}

func newSlogAdapter(cfg *config.Config, w io.Writer) *SlogAdapter {
	ctx, cancel := context.WithCancel(context.Background())

	levelVar := &slog.LevelVar{}
	levelVar.Set(parseSlogLevel(cfg.General.LogLevel))

	handlerOpts := &slog.HandlerOptions{
		Level: levelVar,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	size := cfg.Logging.ChannelSize
	if size <= 0 {
		size = 1
	}

	adapter := &SlogAdapter{
		logger:    slog.New(handler),
		logChan:   make(chan LogMessage, size),
		ctx:       ctx,
		cancel:    cancel,
		slogLevel: levelVar,
		done:      make(chan struct{}),
	}
	adapter.level.Store(int32(parseLogLevel(cfg.General.LogLevel)))

	go adapter.processLogs()

	return adapter
}

func outputWriter(output string) io.Writer {
	if strings.ToLower(output) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// updates the filtering level and the slog level dynamically
func (s *SlogAdapter) UpdateLevel(logLvl string) {
	normalizedLevel := strings.ToLower(logLvl)

	s.level.Store(int32(parseLogLevel(normalizedLevel)))
	s.slogLevel.Set(parseSlogLevel(normalizedLevel))

	s.Info("Logger level updated dynamically", "new_level", normalizedLevel)
}

// handles messages asynchronously
func (s *SlogAdapter) processLogs() {
	defer close(s.done)

	for {
		select {
		case msg := <-s.logChan:
			s.writeLog(msg)
		case <-s.ctx.Done():
			for len(s.logChan) > 0 {
				msg := <-s.logChan
				s.writeLog(msg)
			}
			return
		}
	}
}

// converts string level to slog.Level
func parseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// writes msg stamped with the time it was queued, not the time it was processed
func (s *SlogAdapter) writeLog(msg LogMessage) {
	level := toSlogLevel(msg.Level)
	handler := s.logger.Handler()
	if !handler.Enabled(context.Background(), level) {
		return
	}

	record := slog.NewRecord(msg.Time, level, msg.Msg, 0)
	record.Add(msg.Args...)
	handler.Handle(context.Background(), record)
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func (s *SlogAdapter) sendLog(level LogLevel, msg string, args ...any) {
	select {
	case s.logChan <- LogMessage{
		Level: level,
		Msg:   msg,
		Args:  args,
		Time:  time.Now(),
	}:
	default:
		// chan full
		s.dropped.Add(1)
	}
}

func (s *SlogAdapter) shouldLog(level LogLevel) bool {
	return level <= LogLevel(s.level.Load())
}

// returns how many messages were discarded because the buffer was full
func (s *SlogAdapter) Dropped() int64 {
	return s.dropped.Load()
}

func (s *SlogAdapter) Error(msg string, args ...any) {
	if !s.shouldLog(LevelError) {
		return
	}
	s.sendLog(LevelError, msg, args...)
}

func (s *SlogAdapter) Warn(msg string, args ...any) {
	if !s.shouldLog(LevelWarn) {
		return
	}
	s.sendLog(LevelWarn, msg, args...)
}

func (s *SlogAdapter) Info(msg string, args ...any) {
	if !s.shouldLog(LevelInfo) {
		return
	}
	s.sendLog(LevelInfo, msg, args...)
}

func (s *SlogAdapter) Debug(msg string, args ...any) {
	if !s.shouldLog(LevelDebug) {
		return
	}
	s.sendLog(LevelDebug, msg, args...)
}

// stops the processing goroutine after draining buffered messages, then
// reports how many messages were lost to a full buffer
func (s *SlogAdapter) Shutdown() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done

		if n := s.dropped.Load(); n > 0 {
			s.writeLog(LogMessage{
				Level: LevelWarn,
				Msg:   "Log messages dropped, buffer full",
				Args:  []any{"count", n},
				Time:  time.Now(),
			})
		}
	})
	<-s.done
}
