package pipeline

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/ppiankov/mapleads/internal/model"
	"go.uber.org/zap"
)

// Emitter receives the run's event stream. Implementations must be safe for
// concurrent use.
type Emitter interface {
	Emit(ev model.Event)
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(ev model.Event)

// Emit implements Emitter
func (f EmitterFunc) Emit(ev model.Event) { f(ev) }

// Discard drops every event
var Discard Emitter = EmitterFunc(func(model.Event) {})

// ChannelEmitter forwards events to a channel. Emit blocks while the channel is full.
type ChannelEmitter struct {
	ch chan<- model.Event
}

// NewChannelEmitter creates a ChannelEmitter
func NewChannelEmitter(ch chan<- model.Event) *ChannelEmitter {
	return &ChannelEmitter{ch: ch}
}

// Emit implements Emitter
func (c *ChannelEmitter) Emit(ev model.Event) {
	c.ch <- ev
}

// LogEmitter writes events through zap
type LogEmitter struct {
	log *zap.Logger
}

// NewLogEmitter creates a LogEmitter. A nil logger uses the global one.
func NewLogEmitter(log *zap.Logger) *LogEmitter {
	if log == nil {
		log = zap.L()
	}
	return &LogEmitter{log: log.Named("events")}
}

// Emit implements Emitter
func (l *LogEmitter) Emit(ev model.Event) {
	fields := []zap.Field{zap.String("run_id", ev.RunID)}

	switch ev.Type {
	case model.EventProgress:
		if p := ev.Progress; p != nil {
			fields = append(fields,
				zap.Int("processed", p.Processed),
				zap.Int("discovered", p.Discovered),
				zap.Int("added", p.Added),
				zap.Int("target", p.Target))
		}
		l.log.Info("progress", fields...)
	case model.EventComplete:
		l.log.Info("complete", append(fields, zap.Int("records", len(ev.Records)))...)
	case model.EventError:
		l.log.Error(ev.Message, fields...)
	default:
		switch ev.Level {
		case model.LevelWarning:
			l.log.Warn(ev.Message, fields...)
		case model.LevelError:
			l.log.Error(ev.Message, fields...)
		default:
			l.log.Info(ev.Message, append(fields, zap.String("level", string(ev.Level)))...)
		}
	}
}

// JSONEmitter writes one JSON object per event
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates a JSONEmitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit implements Emitter
func (j *JSONEmitter) Emit(ev model.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(ev); err != nil {
		zap.L().Warn("event encode failed", zap.Error(err))
	}
}

// MultiEmitter fans each event out in order
type MultiEmitter []Emitter

// Emit implements Emitter
func (m MultiEmitter) Emit(ev model.Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}

// events stamps run metadata on everything the pipeline emits
type events struct {
	out   Emitter
	runID string
	now   func() time.Time
}

func newEvents(out Emitter, runID string) *events {
	if out == nil {
		out = Discard
	}
	return &events{out: out, runID: runID, now: time.Now}
}

func (e *events) emit(ev model.Event) {
	ev.Time = e.now()
	ev.RunID = e.runID
	e.out.Emit(ev)
}

func (e *events) log(level model.LogLevel, msg string) {
	e.emit(model.Event{Type: model.EventLog, Level: level, Message: msg})
}

func (e *events) progress(p model.Progress) {
	e.emit(model.Event{Type: model.EventProgress, Progress: &p})
}

func (e *events) complete(records []model.Record) {
	e.emit(model.Event{Type: model.EventComplete, Records: records})
}

func (e *events) fail(msg string) {
	e.emit(model.Event{Type: model.EventError, Level: model.LevelError, Message: msg})
}
