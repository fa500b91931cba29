package gateway

import "testing"

func TestReplayBuffer_Range(t *testing.T) {
	rb := NewReplayBuffer(100)
	for i := int64(1); i <= 10; i++ {
		rb.Push(i, []byte("msg"))
	}

	got := rb.Range(3, 7)
	if len(got) != 5 {
		t.Fatalf("Range(3,7): expected 5, got %d", len(got))
	}
	for i, e := range got {
		if want := int64(i) + 3; e.Seq != want {
			t.Errorf("entry[%d].Seq = %d, want %d", i, e.Seq, want)
		}
	}
}

func TestReplayBuffer_Wraparound(t *testing.T) {
	rb := NewReplayBuffer(5)
	for i := int64(1); i <= 8; i++ {
		rb.Push(i, []byte("msg"))
	}

	if rb.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rb.Len())
	}
	if rb.Oldest() != 4 {
		t.Errorf("Oldest() = %d, want 4", rb.Oldest())
	}
	got := rb.Range(1, 10)
	if len(got) != 5 {
		t.Fatalf("Range(1,10): expected 5, got %d", len(got))
	}
	if got[0].Seq != 4 || got[4].Seq != 8 {
		t.Errorf("range = [%d..%d], want [4..8]", got[0].Seq, got[4].Seq)
	}
}

func TestReplayBuffer_CopiesData(t *testing.T) {
	rb := NewReplayBuffer(4)
	data := []byte("abc")
	rb.Push(1, data)
	data[0] = 'x'
	if got := string(rb.Range(1, 1)[0].Data); got != "abc" {
		t.Errorf("buffered data = %q, want abc", got)
	}
}

func TestReplayBuffer_Empty(t *testing.T) {
	rb := NewReplayBuffer(10)
	if got := rb.Range(1, 100); len(got) != 0 {
		t.Fatalf("empty buffer Range should return 0, got %d", len(got))
	}
	if rb.Oldest() != 0 {
		t.Errorf("Oldest() on empty = %d, want 0", rb.Oldest())
	}
}
