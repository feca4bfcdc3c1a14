package treeman

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// AllocatorName identifies the allocator backing every allocation.
const AllocatorName = "go"

// AllocatorStats reports allocator-level memory usage in bytes.
type AllocatorStats struct {
	Allocated uint64 `json:"allocated"`
	Resident  uint64 `json:"resident"`
	Metadata  uint64 `json:"metadata"`
}

// Runtime describes the process the engine runs in.
type Runtime struct {
	Allocator   string         `json:"allocator"`
	GoVersion   string         `json:"go_version"`
	OS          string         `json:"os"`
	Arch        string         `json:"arch"`
	NumCPU      int            `json:"num_cpu"`
	GOMAXPROCS  int            `json:"gomaxprocs"`
	CPUFeatures []string       `json:"cpu_features"`
	Memory      AllocatorStats `json:"memory"`
}

// AllocatorUsage reads the current allocator statistics.
func AllocatorUsage() AllocatorStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return AllocatorStats{
		Allocated: ms.HeapAlloc,
		Resident:  ms.Sys - ms.HeapReleased,
		Metadata:  ms.MSpanSys + ms.MCacheSys + ms.BuckHashSys + ms.GCSys + ms.OtherSys,
	}
}

// RuntimeInfo reports the allocator, scheduler and CPU the engine runs on.
func RuntimeInfo() Runtime {
	return Runtime{
		Allocator:   AllocatorName,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		GOMAXPROCS:  runtime.GOMAXPROCS(0),
		CPUFeatures: cpuFeatures(),
		Memory:      AllocatorUsage(),
	}
}

func cpuFeatures() []string {
	features := []string{}
	add := func(has bool, name string) {
		if has {
			features = append(features, name)
		}
	}
	add(cpu.X86.HasSSE42, "sse4.2")
	add(cpu.X86.HasPOPCNT, "popcnt")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasBMI2, "bmi2")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasSVE, "sve")
	add(cpu.ARM64.HasSVE2, "sve2")
	return features
}
