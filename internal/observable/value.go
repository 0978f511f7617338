// Package observable は購読可能な値ホルダーを提供する。
// 画面側は Subscribe で変更通知を受け取り、常に最新の値だけを描画する。
package observable

import "sync"

// Value は最新値を保持し、更新を購読者へ配信する。
// 配信は各購読者につき最新1件のみをバッファし、遅い購読者は古い値を読み飛ばす。
type Value[T any] struct {
	mu          sync.RWMutex
	current     T
	version     uint64
	subscribers map[uint64]chan T
	nextID      uint64
}

// NewValue は初期値を持つValueを生成する。
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current:     initial,
		subscribers: make(map[uint64]chan T),
	}
}

// Get は現在の値を返す。
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Version は値が置き換えられた回数を返す。
func (v *Value[T]) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Load は現在の値とその版を同時に返す。
func (v *Value[T]) Load() (T, uint64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current, v.version
}

// Set は値を丸ごと置き換え、全購読者に通知する。
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = value
	v.version++
	for _, ch := range v.subscribers {
		// 未読の古い値は捨てて最新値に差し替える
		select {
		case <-ch:
		default:
		}
		ch <- value
	}
}

// Subscribe は変更通知を受け取るチャネルと解除関数を返す。
// チャネルには購読時点の値が最初に届く。解除するとチャネルはcloseされる。
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.current
	v.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount は現在の購読者数を返す。
func (v *Value[T]) SubscriberCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subscribers)
}
