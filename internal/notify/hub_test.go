package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/notify"
)

func TestHub_NotifyLlegaATodosLosSuscriptores(t *testing.T) {
	hub := notify.NewHub()

	ch1, un1 := hub.Subscribe()
	ch2, un2 := hub.Subscribe()
	defer un1()
	defer un2()

	require.Equal(t, 2, hub.Subscribers())

	hub.Notify("dashboard_update", map[string]any{"message": "hola"})

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, "dashboard_update", ev1.Name)
	assert.Equal(t, "hola", ev1.Payload["message"])
	assert.Equal(t, ev1, ev2)
}

func TestHub_UnsubscribeCierraElCanal(t *testing.T) {
	hub := notify.NewHub()
	ch, unsubscribe := hub.Subscribe()

	unsubscribe()

	_, open := <-ch
	assert.False(t, open, "el canal debe cerrarse al darse de baja")
	assert.Equal(t, 0, hub.Subscribers())

	// Doble baja no debe entrar en pánico.
	assert.NotPanics(t, func() { unsubscribe() })
}

func TestHub_SuscriptorLentoNoBloquea(t *testing.T) {
	hub := notify.NewHub()
	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// Llenar el buffer (8) y seguir: el exceso se descarta en silencio.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			hub.Notify("dashboard_update", nil)
		}
		close(done)
	}()
	<-done // si Notify bloqueara, el test nunca terminaría
}

func TestEvent_Marshal(t *testing.T) {
	ev := notify.Event{Name: "dashboard_update", Payload: map[string]any{"item_id": "abc"}}
	assert.JSONEq(t, `{"event":"dashboard_update","payload":{"item_id":"abc"}}`, string(ev.Marshal()))

	sinPayload := notify.Event{Name: "ping"}
	assert.JSONEq(t, `{"event":"ping"}`, string(sinPayload.Marshal()))
}
