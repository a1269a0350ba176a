// Package telemetry samples process resource usage as a liveness signal.
// The time-based progress estimate can be wrong; a non-zero CPU reading
// proves the process has not hung.
package telemetry

import (
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Usage is a point-in-time resource snapshot. GPUPercent is nil when no
// GPU reading could be obtained.
type Usage struct {
	CPUPercent float64
	MemoryMB   float64
	GPUPercent *float64
}

// Sampler reads CPU, memory and best-effort GPU usage for this process and
// its children. All probe failures degrade to zero/absent values; Sample
// never fails the operation it is monitoring. Not safe for concurrent use;
// the heartbeat reporter is its only caller.
type Sampler struct {
	proc        *process.Process
	gpuDisabled bool
}

// NewSampler creates a sampler for the current process. A nil process
// handle (pid lookup failure) is tolerated; samples will read zero.
func NewSampler() *Sampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &Sampler{proc: proc}
}

// Sample returns current resource usage. Memory includes child worker
// processes, since conversion libraries fork model workers.
func (s *Sampler) Sample() Usage {
	var u Usage
	if s.proc == nil {
		return u
	}

	if cpu, err := s.proc.CPUPercent(); err == nil {
		u.CPUPercent = cpu
	}

	var rss uint64
	if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
		rss = mem.RSS
	}
	if children, err := s.proc.Children(); err == nil {
		for _, child := range children {
			if mem, err := child.MemoryInfo(); err == nil && mem != nil {
				rss += mem.RSS
			}
		}
	}
	u.MemoryMB = float64(rss) / (1024 * 1024)

	u.GPUPercent = s.gpuPercent()
	return u
}

// gpuPercent queries nvidia-smi for GPU utilization. The probe is disabled
// after the first failure so a missing binary is not re-execed every tick.
func (s *Sampler) gpuPercent() *float64 {
	if s.gpuDisabled {
		return nil
	}

	out, err := exec.Command(
		"nvidia-smi",
		"--query-gpu=utilization.gpu",
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		s.gpuDisabled = true
		return nil
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return nil
	}
	return &v
}
