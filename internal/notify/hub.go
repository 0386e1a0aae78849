// Package notify implementa un hub de eventos en proceso para notificar a
// clientes conectados por Server-Sent Events cuando cambia el estado del
// inventario (dashboard en vivo).
package notify

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event es el mensaje que se difunde a los suscriptores.
type Event struct {
	Name    string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Hub difunde eventos a todos los suscriptores activos. El envío nunca
// bloquea: si el buffer de un suscriptor está lleno, el evento se descarta
// para ese cliente.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub crea un hub vacío.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registra un nuevo suscriptor y devuelve su canal junto con la
// función de baja. El canal se cierra al darse de baja.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, unsubscribe
}

// Notify difunde un evento a todos los suscriptores sin bloquear.
// Implementa el puerto Notifier de la capa de aplicación.
func (h *Hub) Notify(event string, payload map[string]any) {
	ev := Event{Name: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("event", event).Msg("suscriptor lento, evento descartado")
		}
	}
}

// Subscribers devuelve la cantidad de suscriptores activos.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Marshal serializa un evento como JSON para la línea data: de SSE.
func (e Event) Marshal() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return []byte(`{"event":"error"}`)
	}
	return b
}
