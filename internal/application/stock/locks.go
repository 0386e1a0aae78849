package stock

import "sync"

// itemLocks serializa las escrituras por artículo dentro del proceso.
// El backend remoto (API de tablas HTTP) no puede tomar locks de fila, así que
// el motor cierra la ventana check-then-act de dos salidas simultáneas sobre
// el mismo lote con un mutex por ID de artículo.
type itemLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock bloquea el mutex del artículo y devuelve la función de unlock.
func (l *itemLocks) Lock(itemID string) func() {
	l.mu.Lock()
	m, ok := l.locks[itemID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[itemID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
