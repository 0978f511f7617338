package observable

import (
	"sync"
	"testing"
)

func TestValue_GetSet(t *testing.T) {
	v := NewValue(1)

	if got := v.Get(); got != 1 {
		t.Errorf("Get() = %d, want 1", got)
	}
	v.Set(2)
	if got := v.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
	if got := v.Version(); got != 1 {
		t.Errorf("Version() = %d, want 1", got)
	}
}

func TestValue_Load(t *testing.T) {
	v := NewValue("a")

	got, ver := v.Load()
	if got != "a" || ver != 0 {
		t.Errorf("Load() = (%q, %d), want (a, 0)", got, ver)
	}
	v.Set("b")
	got, ver = v.Load()
	if got != "b" || ver != v.Version() || ver != 1 {
		t.Errorf("Load() = (%q, %d), want (b, 1)", got, ver)
	}
}

func TestValue_Subscribe_ReceivesCurrentThenUpdates(t *testing.T) {
	v := NewValue("initial")

	ch, cancel := v.Subscribe()
	defer cancel()

	if got := <-ch; got != "initial" {
		t.Errorf("最初の通知 = %q, want initial", got)
	}

	v.Set("next")
	if got := <-ch; got != "next" {
		t.Errorf("更新通知 = %q, want next", got)
	}
}

func TestValue_SlowSubscriber_SeesOnlyLatest(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()

	// 読まずに連続更新しても最新値だけが残る
	for i := 1; i <= 5; i++ {
		v.Set(i)
	}
	if got := <-ch; got != 5 {
		t.Errorf("通知 = %d, want 5", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("余分な通知 %d を受信した", extra)
	default:
	}
}

func TestValue_Cancel_ClosesChannel(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel() // 2回呼んでもpanicしない

	if _, ok := <-ch; ok {
		t.Error("解除後のチャネルはcloseされているべき")
	}
	if n := v.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}

	v.Set(1)
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	if got := v.Version(); got != 50 {
		t.Errorf("Version() = %d, want 50", got)
	}
	<-ch
}
