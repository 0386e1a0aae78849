package stock

import "context"

// undoStack acumula las acciones de compensación de una escritura multi-paso.
// No hay transacción entre stores heterogéneos: cada paso que escribe apila su
// reverso y, si un paso posterior falla, la pila se ejecuta en orden inverso.
type undoStack struct {
	steps []func(ctx context.Context) error
}

// push apila la compensación del último paso exitoso.
func (u *undoStack) push(fn func(ctx context.Context) error) {
	u.steps = append(u.steps, fn)
}

// run ejecuta las compensaciones en orden inverso. Devuelve true si todas
// terminaron sin error.
func (u *undoStack) run(ctx context.Context) bool {
	ok := true
	for i := len(u.steps) - 1; i >= 0; i-- {
		if err := u.steps[i](ctx); err != nil {
			ok = false
		}
	}
	return ok
}
