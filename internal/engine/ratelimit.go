package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps aggregate throughput to
// bytesPerSec. The burst is set to 1 MB to allow natural read-size chunks
// through without unnecessary blocking on small reads.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// LimitReader throttles reads from r through limiter. A nil limiter
// returns r unchanged.
func LimitReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &rateLimitedReader{r: r, limiter: limiter, ctx: ctx}
}

// LimitWriter throttles writes to w through limiter. A nil limiter returns
// w unchanged.
func LimitWriter(ctx context.Context, w io.Writer, limiter *rate.Limiter) io.Writer {
	if limiter == nil {
		return w
	}
	return &rateLimitedWriter{w: w, limiter: limiter, ctx: ctx}
}

// rateLimitedReader wraps an io.Reader and enforces a shared rate limit.
type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := rl.r.Read(p)
	if n > 0 {
		if waitErr := waitN(rl.ctx, rl.limiter, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

// rateLimitedWriter wraps an io.Writer and enforces a shared rate limit.
type rateLimitedWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

func (rw *rateLimitedWriter) Write(p []byte) (int, error) {
	if err := waitN(rw.ctx, rw.limiter, len(p)); err != nil {
		return 0, err
	}
	return rw.w.Write(p)
}

// waitN reserves n tokens in burst-sized steps; WaitN rejects requests
// larger than the burst.
func waitN(ctx context.Context, limiter *rate.Limiter, n int) error {
	burst := limiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := limiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
