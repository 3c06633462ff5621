// Package notification implements the lossy, multi-producer fan-out
// broadcast used for user-facing events: info/warn/success/error messages
// raised by the player loop, the downloader, and the remote client.
package notification

import "sync"

// Kind classifies a Notification for presenters that want to style it
// differently (e.g. the TUI popup color, the web toast class).
type Kind int

const (
	Info Kind = iota
	Warn
	Success
	Error
)

func (k Kind) String() string {
	switch k {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a single user-facing event.
type Notification struct {
	Kind    Kind
	Message string
}

const bufferSize = 32

// Broadcaster fans Notification values out to an indeterminate set of
// subscribers. Sends are non-blocking: a subscriber that is not draining
// its channel quickly enough silently drops older messages rather than
// stalling the producer, matching the teacher's subscription.sendX
// pattern in internal/playback/subscription.go.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]chan Notification
	next int
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Notification)}
}

// Subscribe returns a receive channel for this subscriber and a cancel
// function that must be called when the subscriber is done, to release
// the channel.
func (b *Broadcaster) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Notification, bufferSize)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Send publishes n to every current subscriber. For a subscriber whose
// buffer is full, the oldest buffered message is dropped to make room.
func (b *Broadcaster) Send(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
}

// Info publishes an Info-kind notification.
func (b *Broadcaster) Info(msg string) { b.Send(Notification{Kind: Info, Message: msg}) }

// Warn publishes a Warn-kind notification.
func (b *Broadcaster) Warn(msg string) { b.Send(Notification{Kind: Warn, Message: msg}) }

// Success publishes a Success-kind notification.
func (b *Broadcaster) Success(msg string) { b.Send(Notification{Kind: Success, Message: msg}) }

// Errorf publishes an Error-kind notification built from err.
func (b *Broadcaster) Errorf(err error) {
	if err == nil {
		return
	}
	b.Send(Notification{Kind: Error, Message: err.Error()})
}
