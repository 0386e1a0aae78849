package consumables

import "sync"

// consumableLocks serializa las escrituras por consumible dentro del proceso,
// igual que el motor de stock serializa por artículo: el backend remoto no
// puede tomar locks de fila, así que la ventana check-then-act de dos salidas
// simultáneas se cierra con un mutex por ID de consumible.
type consumableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConsumableLocks() *consumableLocks {
	return &consumableLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock bloquea el mutex del consumible y devuelve la función de unlock.
func (l *consumableLocks) Lock(consumableID string) func() {
	l.mu.Lock()
	m, ok := l.locks[consumableID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[consumableID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
