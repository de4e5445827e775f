// internal/pkg/workerpool/pool.go
package workerpool

import (
	"context"
	"sync"

	"ordercore/internal/pkg/logger"
)

// Pool 是一个固定大小的工作池：有界队列 + 固定数量的 worker。
// 队列饱和时采用 caller-runs 策略：任务直接在提交方的 goroutine 上执行，
// 用调用方的延迟换取"任务必定被接纳"的保证，而不是拒绝请求。
type Pool struct {
	name  string
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New 创建并启动一个工作池。
func New(name string, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		name:  name,
		tasks: make(chan func(), queueSize),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error().
				Str("pool", p.name).
				Interface("panic", r).
				Msg("Worker pool task panicked")
		}
	}()
	task()
}

// Submit 提交一个任务。队列已满时在当前 goroutine 上同步执行（caller-runs）。
// 池关闭后提交的任务同样在当前 goroutine 上执行，保证不丢任务。
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.run(task)
		return
	}

	select {
	case p.tasks <- task:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.run(task)
	}
}

// Shutdown 停止接收新任务并等待存量任务执行完毕，或 ctx 超时。
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
