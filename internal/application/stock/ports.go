package stock

// Notifier publica eventos de "algo cambió" hacia los dashboards abiertos.
// Es best-effort y fire-and-forget: su fallo nunca hace fallar la mutación
// de stock que lo originó.
type Notifier interface {
	Notify(event string, payload map[string]any)
}

// NopNotifier descarta los eventos (tests, procesos batch).
type NopNotifier struct{}

func (NopNotifier) Notify(string, map[string]any) {}
