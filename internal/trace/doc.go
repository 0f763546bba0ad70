// Package trace records what the runtime is doing: lifecycle steps, heap
// reclamation passes, promotion walks and, at the most verbose level,
// individual block allocations and frees.
//
// # Levels
//
//   - LevelOff: nothing is recorded
//   - LevelError: invariant failures and crash dumps from a ring tracer
//   - LevelPhase: runtime lifecycle and CLI commands
//   - LevelDetail: heap passes (reclamation, MarkShared, leak checks)
//   - LevelDebug: everything, including per-block alloc/free points
//
// # Usage
//
//	t, _ := trace.New(trace.Config{Level: trace.LevelDetail, Mode: trace.ModeStream})
//	ctx = trace.WithTracer(ctx, t)
//
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeHeap, "reclaim", 0)
//	defer span.End("")
package trace
