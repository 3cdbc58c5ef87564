package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Usage is a memory snapshot of this process and the machine.
type Usage struct {
	RSS         uint64 // resident set size of this process, bytes
	Total       uint64 // physical memory, bytes
	Available   uint64
	UsedPercent float64
}

// ReadUsage samples memory through gopsutil.
func ReadUsage() (Usage, error) {
	var u Usage

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return u, fmt.Errorf("open process: %w", err)
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return u, fmt.Errorf("process memory: %w", err)
	}
	u.RSS = info.RSS

	vm, err := mem.VirtualMemory()
	if err != nil {
		return u, fmt.Errorf("system memory: %w", err)
	}
	u.Total = vm.Total
	u.Available = vm.Available
	u.UsedPercent = vm.UsedPercent

	return u, nil
}

// MiB converts bytes to mebibytes for reports.
func MiB(b uint64) float64 { return float64(b) / (1 << 20) }

func (u Usage) String() string {
	return fmt.Sprintf("RSS %.1f MiB, system %.1f%% of %.0f MiB used", MiB(u.RSS), u.UsedPercent, MiB(u.Total))
}
