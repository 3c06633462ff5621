package notification

import "testing"

func TestSubscribe_ReceivesSentNotification(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Info("hello")

	select {
	case n := <-ch:
		if n.Kind != Info || n.Message != "hello" {
			t.Fatalf("got %+v, want Info/hello", n)
		}
	default:
		t.Fatal("expected a buffered notification")
	}
}

func TestSend_FanOutToMultipleSubscribers(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Warn("careful")

	for _, ch := range []<-chan Notification{ch1, ch2} {
		select {
		case n := <-ch:
			if n.Kind != Warn {
				t.Fatalf("got kind %v, want Warn", n.Kind)
			}
		default:
			t.Fatal("expected every subscriber to receive the notification")
		}
	}
}

func TestSend_DropsWhenBufferFull(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < bufferSize+10; i++ {
		b.Info("spam")
	}

	// Channel should be full but the producer must not have blocked to get here.
	if len(ch) != bufferSize {
		t.Fatalf("buffered len = %d, want %d (full, oldest dropped)", len(ch), bufferSize)
	}
}

func TestCancel_ClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()

	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestErrorf_NilIsNoop(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Errorf(nil)

	select {
	case n := <-ch:
		t.Fatalf("unexpected notification for nil error: %+v", n)
	default:
	}
}
