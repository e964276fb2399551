// Package profile provides optional runtime profiling for the l20n command.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] to provide runtime profiling
// capabilities with conditional compilation support. Profiling is optional and
// must be enabled at build time using the "pprof" build tag.
//
// When built with profiling disabled (default), all operations are no-ops with
// zero runtime overhead.
//
// # Available Profiling Modes
//
// The following profiling modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// Use [Modes] to retrieve the list of supported modes programmatically.
//
// # Using File-Based Profiling
//
// A [Profiler] describes a session and [Profiler.Start] begins it:
//
//	p := profile.Profiler{
//	    Mode:  "cpu",
//	    Path:  "/tmp/profiles",
//	    Quiet: false,
//	}
//	ctrl := p.Start()
//	defer ctrl.Stop()
//
// Profile files are written to the specified directory with names matching the
// profiling mode (e.g., cpu.pprof, mem.pprof).
//
// # Command-Line Usage
//
// The l20n command supports profiling through command-line flags when built
// with the pprof tag:
//
//	go build -tags pprof -o l20n .
//
//	# Profile a large query workload
//	./l20n --pprof-mode cpu query -f app.l20n unreadMessages --var n=3
//
//	# Write heap profiles to a custom directory
//	./l20n --pprof-mode heap --pprof-dir ./profiles check app.l20n
//
// The default output directory is:
//
//	$XDG_CACHE_HOME/l20n/pprof   (Linux/Unix)
//	~/Library/Caches/l20n/pprof  (macOS)
//	%LocalAppData%\l20n\pprof    (Windows)
//
// # Analyzing Profile Data
//
// Use the go tool pprof command to analyze profile data:
//
//	go tool pprof ./l20n /tmp/profiles/cpu.pprof
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//
// # HTTP-Based Profiling (net/http/pprof)
//
// When built with the pprof tag, this package imports [net/http/pprof], which
// registers HTTP handlers for runtime profiling at /debug/pprof/ on
// [net/http.DefaultServeMux]. The l20n command does not start a server.
package profile
