// Package resource governs the shared resources index builds consume.
//
// A Controller is shared by every collection created from the same options
// and manages three things:
//
//   - Memory: accounted bitmap bytes held by registered indices (fail-fast)
//   - Rebuild slots: how many index rebuild fan-outs run at once
//   - Build throughput: records per second fed into index extractors
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Index Memory   │  Rebuild Slots  │  Build Throttle         │
//	│  (fail-fast)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireRebuild │  AcquireBuild           │
//	│  ReleaseMemory  │  TryAcquire...  │                         │
//	│  MemoryUsage    │  ReleaseRebuild │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
