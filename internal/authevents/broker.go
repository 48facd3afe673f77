package authevents

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
)

// 認証状態の変化イベント
type Event struct {
	Type   EventType
	UserID string
	Email  string
	At     time.Time
}

type Handler func(Event)

type subscriber struct {
	id int
	fn Handler
}

// Broker は認証イベントの購読窓口。
// Subscribeの戻り値で購読解除する。配信は発行順・登録順で同期的に行う
// （呼び出し中に発行された次のイベントは前のイベントの後に届く）。
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe はハンドラを登録し、解除用の関数を返す。
func (b *Broker) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.subs {
			if b.subs[i].id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish は全購読者へ同期配信する。
func (b *Broker) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		s.fn(e)
	}
}
