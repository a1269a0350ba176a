// Package events defines the newline-delimited JSON progress protocol the
// adapter speaks to its supervising process over stderr.
package events

import (
	"encoding/json"
	"io"
	"sync"
)

// Type discriminates event variants. Consumers must treat unrecognized
// fields as ignorable; only Type and Status are stable discriminators.
type Type string

const (
	TypeInfo     Type = "info"
	TypeWarning  Type = "warning"
	TypeProgress Type = "progress"
	TypeHardware Type = "hardware"
)

// Status qualifies progress events with the work unit's state.
type Status string

const (
	StatusConverting Status = "converting"
	StatusConverted  Status = "converted"
	StatusChunking   Status = "chunking"
	StatusSaved      Status = "saved"
	StatusError      Status = "error"
)

// Event is the serialized form of every protocol variant. Constructors
// below populate the fields each variant carries; everything else stays
// zero and is omitted from the wire.
type Event struct {
	Type   Type   `json:"type"`
	RunID  string `json:"run_id,omitempty"`
	Status Status `json:"status,omitempty"`

	Message string `json:"message,omitempty"`

	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
	File    string `json:"file,omitempty"`
	Part    string `json:"part,omitempty"`

	TotalPages     int     `json:"total_pages,omitempty"`
	Elapsed        int64   `json:"elapsed,omitempty"`
	EstimatedTotal int64   `json:"estimated_total,omitempty"`
	Remaining      int64   `json:"remaining,omitempty"`
	Percent        float64 `json:"percent,omitempty"`
	Heartbeat      bool    `json:"heartbeat,omitempty"`

	ChunksSoFar int    `json:"chunks_so_far,omitempty"`
	Chunks      int    `json:"chunks,omitempty"`
	TotalChunks int    `json:"total_chunks,omitempty"`
	Error       string `json:"error,omitempty"`

	CPUPercent float64  `json:"cpu_percent,omitempty"`
	MemoryMB   float64  `json:"memory_mb,omitempty"`
	GPUPercent *float64 `json:"gpu_percent,omitempty"`
}

// Info builds an informational event.
func Info(msg string) Event {
	return Event{Type: TypeInfo, Message: msg}
}

// Warning builds a warning event.
func Warning(msg string) Event {
	return Event{Type: TypeWarning, Message: msg}
}

// Progress is the base for a unit-scoped progress event.
type Progress struct {
	Current int
	Total   int
	File    string
	Part    string
}

// Converting announces that a unit's conversion is starting.
func Converting(p Progress, totalPages int) Event {
	return Event{
		Type: TypeProgress, Status: StatusConverting,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		TotalPages: totalPages,
	}
}

// HeartbeatEvent reports the time-based progress estimate while a
// conversion is in flight.
func HeartbeatEvent(p Progress, totalPages int, elapsed, estimatedTotal, remaining int64, percent float64) Event {
	return Event{
		Type: TypeProgress, Status: StatusConverting,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		TotalPages: totalPages, Elapsed: elapsed, EstimatedTotal: estimatedTotal,
		Remaining: remaining, Percent: percent, Heartbeat: true,
	}
}

// Converted announces that a unit's conversion finished.
func Converted(p Progress, totalPages int) Event {
	return Event{
		Type: TypeProgress, Status: StatusConverted,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		TotalPages: totalPages,
	}
}

// Chunking reports the running chunk count while the chunk stream is
// being drained.
func Chunking(p Progress, chunksSoFar int) Event {
	return Event{
		Type: TypeProgress, Status: StatusChunking,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		ChunksSoFar: chunksSoFar,
	}
}

// Saved announces that a unit's chunks were persisted, with running totals.
func Saved(p Progress, chunks, totalChunks int) Event {
	return Event{
		Type: TypeProgress, Status: StatusSaved,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		Chunks: chunks, TotalChunks: totalChunks,
	}
}

// ErrorEvent reports a document-scoped failure. The job continues with the
// next document.
func ErrorEvent(p Progress, err error) Event {
	return Event{
		Type: TypeProgress, Status: StatusError,
		Current: p.Current, Total: p.Total, File: p.File, Part: p.Part,
		Error: err.Error(),
	}
}

// Hardware reports process resource usage as an activity signal.
func Hardware(cpuPercent, memoryMB float64, gpuPercent *float64) Event {
	return Event{
		Type:       TypeHardware,
		CPUPercent: cpuPercent,
		MemoryMB:   memoryMB,
		GPUPercent: gpuPercent,
	}
}

// Emitter serializes events one JSON object per line. Writes are
// mutex-guarded so the heartbeat goroutine and the driver can share it.
type Emitter struct {
	mu    sync.Mutex
	enc   *json.Encoder
	runID string
}

// NewEmitter creates an emitter writing to w, stamping every event with
// runID. The underlying writer should be unbuffered (stderr is).
func NewEmitter(w io.Writer, runID string) *Emitter {
	return &Emitter{enc: json.NewEncoder(w), runID: runID}
}

// Emit writes one event. Serialization errors are ignored: the stream is
// advisory and must never fail the job.
func (e *Emitter) Emit(ev Event) {
	ev.RunID = e.runID

	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(ev)
}
