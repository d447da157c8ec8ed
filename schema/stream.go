package schema

/*
 * stream.go - 惰性分块序列
 *
 * 核心组件：
 *   - StreamReader / StreamWriter：可执行对象流式输出与转换输入的统一载体
 *   - Pipe：基于 channel 的生产者-消费者流
 *   - StreamReaderFromArray：数组流，无需 goroutine
 *   - StreamReaderWithConvert：逐块转换，转换函数返回 ErrNoValue 时跳过该块
 *   - MergeStreamReaders：多流合并，不保证块间顺序
 *   - ChainStreamReaders：多流顺序拼接
 *   - Copy：一读多写，子流各自独立消费
 *   - StreamReaderWithHooks：逐块与结束回调，用于生命周期事件和旁路副作用
 *
 * 约定：
 *   - 错误随序列传递，Recv 返回的非 io.EOF 错误属于当前块
 *   - 序列结束时 Recv 返回 io.EOF
 *   - 流不可重放，重新调用生产方法才能得到新的流
 */

import (
	"errors"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/eurora-labs/eurora-sub002/internal/safe"
)

// ErrNoValue 由转换函数返回，表示跳过当前块。
var ErrNoValue = errors.New("no value")

// ErrRecvAfterClosed 在已关闭的流上继续接收时返回。
var ErrRecvAfterClosed = errors.New("recv after stream closed")

// ====== 公开 API ======

// Pipe 创建容量为 cap 的流，返回读写两端。
//
//	sr, sw := schema.Pipe[string](3)
//	go func() {
//		defer sw.Close()
//		for i := 0; i < 10; i++ {
//			sw.Send(strconv.Itoa(i), nil)
//		}
//	}()
//
//	defer sr.Close()
//	for {
//		chunk, err := sr.Recv()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		fmt.Println(chunk)
//	}
func Pipe[T any](cap int) (*StreamReader[T], *StreamWriter[T]) {
	stm := newStream[T](cap)
	return &StreamReader[T]{r: stm}, &StreamWriter[T]{stm: stm}
}

// StreamReaderFromArray 以流的方式读取数组元素。
func StreamReaderFromArray[T any](arr []T) *StreamReader[T] {
	return &StreamReader[T]{r: &arrayReader[T]{arr: arr}}
}

// StreamReaderWithConvert 创建逐块转换的流。
// convert 返回 ErrNoValue 的块会被静默跳过，返回其它错误时该错误作为块错误向下游传递。
func StreamReaderWithConvert[T, D any](sr *StreamReader[T], convert func(T) (D, error)) *StreamReader[D] {
	return &StreamReader[D]{r: &convertReader[T, D]{origin: sr.r, convert: convert}}
}

// MergeStreamReaders 合并多个流，所有源流结束后才返回 io.EOF。
func MergeStreamReaders[T any](srs []*StreamReader[T]) *StreamReader[T] {
	switch len(srs) {
	case 0:
		return nil
	case 1:
		return srs[0]
	}

	sts := make([]*stream[T], 0, len(srs))
	for _, sr := range srs {
		sts = append(sts, toStream(sr.r))
	}

	return &StreamReader[T]{r: newMultiReader(sts)}
}

// ChainStreamReaders 依次读取多个流，前一个读到 io.EOF 后才开始读下一个。
func ChainStreamReaders[T any](srs ...*StreamReader[T]) *StreamReader[T] {
	rs := make([]reader[T], 0, len(srs))
	for _, sr := range srs {
		rs = append(rs, sr.r)
	}
	return &StreamReader[T]{r: &chainReader[T]{rs: rs}}
}

// StreamReaderWithHooks 包装流：每读到一块调用 onChunk，读到 io.EOF 时调用一次 onEOF。
// onEOF 返回的非 nil 错误代替 io.EOF 返回一次，之后 Recv 返回 io.EOF。
func StreamReaderWithHooks[T any](sr *StreamReader[T], onChunk func(T, error), onEOF func() error) *StreamReader[T] {
	return &StreamReader[T]{r: &hookReader[T]{origin: sr.r, onChunk: onChunk, onEOF: onEOF}}
}

// StreamReader 流读取端。
type StreamReader[T any] struct {
	r reader[T]

	closed atomic.Bool
}

// Recv 读取下一个块。
func (sr *StreamReader[T]) Recv() (T, error) {
	if sr.closed.Load() {
		var t T
		return t, ErrRecvAfterClosed
	}
	return sr.r.recv()
}

// Close 关闭读取端，通知生产方停止发送。可重复调用。
func (sr *StreamReader[T]) Close() {
	if sr.closed.CompareAndSwap(false, true) {
		sr.r.close()
	}
}

// Copy 生成 n 个子流，原流此后不可再使用。
// 子流按各自进度读取同一份数据，全部子流关闭后源流才会关闭。
func (sr *StreamReader[T]) Copy(n int) []*StreamReader[T] {
	if n < 2 {
		return []*StreamReader[T]{sr}
	}

	p := &parentReader[T]{origin: sr.r, remaining: int32(n)}
	children := make([]*StreamReader[T], n)
	for i := range children {
		children[i] = &StreamReader[T]{r: &childReader[T]{parent: p}}
	}
	return children
}

// StreamWriter 流写入端。
type StreamWriter[T any] struct {
	stm *stream[T]
}

// Send 发送一个块，返回 true 表示读取端已关闭，生产方应停止发送。
func (sw *StreamWriter[T]) Send(chunk T, err error) (closed bool) {
	return sw.stm.send(chunk, err)
}

// Close 通知读取端不再有数据。
func (sw *StreamWriter[T]) Close() {
	sw.stm.closeSend()
}

// ====== 内部实现 ======

type reader[T any] interface {
	recv() (T, error)
	close()
}

type streamItem[T any] struct {
	chunk T
	err   error
}

// stream 基于 channel 的流。
type stream[T any] struct {
	items chan streamItem[T]

	closed chan struct{}

	closedFlag atomic.Bool
}

func newStream[T any](cap int) *stream[T] {
	return &stream[T]{
		items:  make(chan streamItem[T], cap),
		closed: make(chan struct{}),
	}
}

func (s *stream[T]) recv() (chunk T, err error) {
	item, ok := <-s.items
	if !ok {
		item.err = io.EOF
	}
	return item.chunk, item.err
}

func (s *stream[T]) send(chunk T, err error) (closed bool) {
	// 读取端已关闭时不再阻塞
	select {
	case <-s.closed:
		return true
	default:
	}

	item := streamItem[T]{chunk, err}

	select {
	case <-s.closed:
		return true
	case s.items <- item:
		return false
	}
}

func (s *stream[T]) closeSend() {
	close(s.items)
}

func (s *stream[T]) close() {
	if s.closedFlag.CompareAndSwap(false, true) {
		close(s.closed)
	}
}

// arrayReader 数组流。
type arrayReader[T any] struct {
	arr   []T
	index int
}

func (ar *arrayReader[T]) recv() (T, error) {
	if ar.index < len(ar.arr) {
		ret := ar.arr[ar.index]
		ar.index++
		return ret, nil
	}

	var t T
	return t, io.EOF
}

func (ar *arrayReader[T]) close() {}

// convertReader 逐块转换。
type convertReader[T, D any] struct {
	origin  reader[T]
	convert func(T) (D, error)
}

func (cr *convertReader[T, D]) recv() (D, error) {
	for {
		out, err := cr.origin.recv()
		if err != nil {
			var d D
			return d, err
		}

		d, err := cr.convert(out)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrNoValue) {
			return d, err
		}
	}
}

func (cr *convertReader[T, D]) close() {
	cr.origin.close()
}

// hookReader 读取过程中回调。
type hookReader[T any] struct {
	origin  reader[T]
	onChunk func(T, error)
	onEOF   func() error
	done    bool
}

func (hr *hookReader[T]) recv() (T, error) {
	var zero T
	if hr.done {
		return zero, io.EOF
	}

	chunk, err := hr.origin.recv()
	if errors.Is(err, io.EOF) {
		hr.done = true
		if hr.onEOF != nil {
			if hookErr := hr.onEOF(); hookErr != nil {
				return zero, hookErr
			}
		}
		return zero, io.EOF
	}

	if hr.onChunk != nil {
		hr.onChunk(chunk, err)
	}
	return chunk, err
}

func (hr *hookReader[T]) close() {
	hr.origin.close()
}

// chainReader 顺序拼接。
type chainReader[T any] struct {
	rs  []reader[T]
	idx int
}

func (cr *chainReader[T]) recv() (T, error) {
	for cr.idx < len(cr.rs) {
		chunk, err := cr.rs[cr.idx].recv()
		if errors.Is(err, io.EOF) {
			cr.rs[cr.idx].close()
			cr.idx++
			continue
		}
		return chunk, err
	}

	var t T
	return t, io.EOF
}

func (cr *chainReader[T]) close() {
	for ; cr.idx < len(cr.rs); cr.idx++ {
		cr.rs[cr.idx].close()
	}
}

// multiReader 多流合并。
type multiReader[T any] struct {
	sts []*stream[T]

	// 尚未结束的流下标
	nonClosed []int
}

func newMultiReader[T any](sts []*stream[T]) *multiReader[T] {
	nonClosed := make([]int, 0, len(sts))
	for i := range sts {
		nonClosed = append(nonClosed, i)
	}
	return &multiReader[T]{sts: sts, nonClosed: nonClosed}
}

func (mr *multiReader[T]) recv() (T, error) {
	for len(mr.nonClosed) > 0 {
		var chosen int
		var item streamItem[T]
		var ok bool

		if len(mr.nonClosed) > maxSelectNum {
			chosen, item, ok = receiveAny(mr.nonClosed, mr.sts)
		} else {
			chosen, item, ok = receiveN(mr.nonClosed, mr.sts)
		}

		if ok {
			return item.chunk, item.err
		}

		for i, idx := range mr.nonClosed {
			if idx == chosen {
				mr.nonClosed = append(mr.nonClosed[:i], mr.nonClosed[i+1:]...)
				break
			}
		}
	}

	var t T
	return t, io.EOF
}

func (mr *multiReader[T]) close() {
	for _, s := range mr.sts {
		s.close()
	}
}

// parentReader 为 Copy 的子流共享的源。
type parentReader[T any] struct {
	mu     sync.Mutex
	origin reader[T]
	buf    []streamItem[T]
	done   bool

	remaining int32
}

func (p *parentReader[T]) at(idx int) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for idx >= len(p.buf) {
		if p.done {
			var t T
			return t, io.EOF
		}
		chunk, err := p.origin.recv()
		if errors.Is(err, io.EOF) {
			p.done = true
			continue
		}
		p.buf = append(p.buf, streamItem[T]{chunk: chunk, err: err})
	}

	item := p.buf[idx]
	return item.chunk, item.err
}

func (p *parentReader[T]) release() {
	if atomic.AddInt32(&p.remaining, -1) == 0 {
		p.origin.close()
	}
}

type childReader[T any] struct {
	parent *parentReader[T]
	idx    int
	closed bool
}

func (c *childReader[T]) recv() (T, error) {
	chunk, err := c.parent.at(c.idx)
	if errors.Is(err, io.EOF) {
		return chunk, err
	}
	c.idx++
	return chunk, err
}

func (c *childReader[T]) close() {
	if c.closed {
		return
	}
	c.closed = true
	c.parent.release()
}

// toStream 把任意读取端转成 channel 流，供合并使用。
func toStream[T any](r reader[T]) *stream[T] {
	if s, ok := r.(*stream[T]); ok {
		return s
	}

	ret := newStream[T](5)
	go func() {
		defer func() {
			if panicErr := recover(); panicErr != nil {
				var t T
				_ = ret.send(t, safe.NewPanicErr(panicErr, debug.Stack()))
			}
			ret.closeSend()
			r.close()
		}()

		for {
			out, err := r.recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if closed := ret.send(out, err); closed {
				break
			}
		}
	}()

	return ret
}
