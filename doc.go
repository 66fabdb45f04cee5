// Package rtdec is a realtime decoder for quantum error-correction
// syndromes.
//
// During a QEC cycle the calling program submits the measured stabilizer
// syndrome together with a deadline; rtdec computes the most likely physical
// error pattern by minimum-weight matching over a cached decoding graph and
// returns a Pauli-frame update before the deadline, or an explicit timeout.
//
// # Quick start
//
//	desc, _ := code.SurfaceCode(5)
//	sess, err := rtdec.Matching(desc).
//	    Uniform(0.001).          // noise model
//	    Workers(4).              // CPU decode lanes
//	    Deadline(time.Millisecond).
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//	defer sess.Close()
//
//	out, err := sess.Decode(ctx, cycleID, syndrome)
//	switch {
//	case err != nil:
//	    // rejected: shape mismatch, out-of-order cycle, backpressure,
//	    // or unresolved syndrome; inspect with errors.Is/As
//	case out.Status == kernel.StatusTimeout:
//	    // no correction applied this cycle; NOT an identity correction
//	default:
//	    // out.Update carries the frame delta; it is already folded into
//	    // sess.Frame()
//	}
//
// # Realtime contract
//
// Decode is synchronous per cycle and internally parallel across
// independent syndrome regions. Per-cycle failures are returned as values,
// never panics, and always carry the cycle id. Timeouts are a distinct
// result status so they cannot be swallowed by generic error handling; an
// abandoned decode never corrupts state for the next cycle.
//
// The decoding graph is built once per (code, noise model) pair and shared
// read-only by all decodes; round buffers and search scratch are pooled.
// Each Session owns its device context and releases it deterministically in
// Close, so independent sessions and test runs do not interfere.
package rtdec
