package realtime

import (
	"context"
	"sync"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
)

// LocalNotifier feed de cambios en proceso (una sola instancia, sin Redis).
// Un suscriptor lento pierde eventos en vez de bloquear al publicador.
type LocalNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]localSub
}

type localSub struct {
	tables map[string]bool
	ch     chan ports.ChangeEvent
}

var _ ports.ChangeNotifier = (*LocalNotifier)(nil)

// NewLocalNotifier crea el notificador en memoria.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: map[int]localSub{}}
}

// Publish entrega el evento a los suscriptores de su tabla sin bloquear.
func (n *LocalNotifier) Publish(_ context.Context, evt ports.ChangeEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, s := range n.subs {
		if !s.tables[evt.Table] {
			continue
		}
		select {
		case s.ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe bloquea hasta que ctx termine.
func (n *LocalNotifier) Subscribe(ctx context.Context, tables []string, fn func(ports.ChangeEvent)) error {
	sub := localSub{tables: map[string]bool{}, ch: make(chan ports.ChangeEvent, 64)}
	for _, t := range tables {
		sub.tables[t] = true
	}
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = sub
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-sub.ch:
			fn(evt)
		}
	}
}
