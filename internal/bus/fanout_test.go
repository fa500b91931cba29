package bus

import (
	"testing"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

func TestFanOut_BroadcastsToAll(t *testing.T) {
	fo := New[model.Snapshot](10)
	out1 := fo.Subscribe()
	out2 := fo.Subscribe()

	fo.Publish(model.Snapshot{Version: 7, Timeframe: model.TF3M})

	for i, out := range []<-chan model.Snapshot{out1, out2} {
		select {
		case s := <-out:
			if s.Version != 7 || s.Timeframe != model.TF3M {
				t.Errorf("out%d: got %+v", i+1, s)
			}
		case <-time.After(time.Second):
			t.Fatalf("out%d: timed out waiting for snapshot", i+1)
		}
	}
}

func TestFanOut_DropsForFullSubscriber(t *testing.T) {
	fo := New[int](1)
	var dropped []int
	fo.OnDrop = func(idx int) { dropped = append(dropped, idx) }

	_ = fo.Subscribe()
	fast := fo.Subscribe()

	fo.Publish(1)
	<-fast
	fo.Publish(2)

	if len(dropped) != 1 || dropped[0] != 0 {
		t.Fatalf("expected one drop for subscriber 0, got %v", dropped)
	}
	if v := <-fast; v != 2 {
		t.Errorf("fast subscriber got %d, want 2", v)
	}
}

func TestFanOut_CloseClosesSubscribers(t *testing.T) {
	fo := New[int](4)
	out := fo.Subscribe()
	fo.Close()
	fo.Publish(1)

	if _, ok := <-out; ok {
		t.Fatal("expected closed channel")
	}
	if _, ok := <-fo.Subscribe(); ok {
		t.Fatal("subscribe after close should return a closed channel")
	}
}

func TestFanOut_ChannelStats(t *testing.T) {
	fo := New[int](4)
	fo.Subscribe()
	fo.Publish(1)
	fo.Publish(2)

	stats := fo.ChannelStats()
	if len(stats) != 1 || stats[0].Len != 2 || stats[0].Cap != 4 {
		t.Errorf("stats = %+v", stats)
	}
}
