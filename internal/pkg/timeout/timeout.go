package timeout

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("操作超时")

// Run 给不认 context 的 SDK 调用（OSS 探测、上传等）加统一超时。
// op 在独立 goroutine 中执行；超时后 op 继续跑到自然结束，返回值被丢弃。
func Run(ctx context.Context, d time.Duration, op func() error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
