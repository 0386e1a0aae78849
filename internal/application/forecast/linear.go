package forecast

import (
	"math"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// FitLine ajusta por mínimos cuadrados una recta y = m·x + b sobre la serie,
// usando como x los índices 0..n-1. Requiere al menos 2 puntos.
func FitLine(ys []float64) (m, b float64, err error) {
	n := len(ys)
	if n < 2 {
		return 0, 0, domain.ErrInsufficientData
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0, sumY / fn, nil
	}
	m = (fn*sumXY - sumX*sumY) / den
	b = (sumY - m*sumX) / fn
	return m, b, nil
}

// Project proyecta `horizon` valores hacia adelante desde el último índice de
// una serie de largo n. Cada valor se trunca en 0 (no hay demanda negativa
// pronosticada) y se redondea a 2 decimales.
func Project(m, b float64, n, horizon int) []float64 {
	out := make([]float64, 0, horizon)
	for i := 1; i <= horizon; i++ {
		v := m*float64(n+i-1) + b
		if v < 0 {
			v = 0
		}
		out = append(out, round2(v))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
