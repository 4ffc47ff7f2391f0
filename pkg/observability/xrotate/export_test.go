package xrotate

import (
	"sync"
	"time"
)

// withClock 注入时钟
func withClock(now func() time.Time) SizeOption {
	return func(c *sizeConfig) {
		c.now = now
	}
}

// withRename 注入重命名函数
func withRename(fn func(oldpath, newpath string) error) SizeOption {
	return func(c *sizeConfig) {
		c.renameFn = fn
	}
}

// fakeClock 每次调用前进 step 的测试时钟
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{
		t:    time.Date(2024, 3, 1, 8, 30, 15, 250_000_000, time.UTC),
		step: step,
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}
