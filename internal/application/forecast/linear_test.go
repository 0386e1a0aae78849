package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/forecast"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

func TestFitLine_RectaPerfecta(t *testing.T) {
	// y = 2x + 1
	m, b, err := forecast.FitLine([]float64{1, 3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m, 1e-9)
	assert.InDelta(t, 1.0, b, 1e-9)
}

func TestFitLine_SerieConstante(t *testing.T) {
	m, b, err := forecast.FitLine([]float64{4, 4, 4, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m, 1e-9, "consumo constante: pendiente cero")
	assert.InDelta(t, 4.0, b, 1e-9)
}

func TestFitLine_DatosInsuficientes(t *testing.T) {
	_, _, err := forecast.FitLine([]float64{5})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, _, err = forecast.FitLine(nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestProject_ContinuaLaRecta(t *testing.T) {
	// y = 2x + 1 con n=5: los siguientes índices son 5, 6, 7.
	got := forecast.Project(2, 1, 5, 3)
	assert.Equal(t, []float64{11, 13, 15}, got)
}

func TestProject_TruncaEnCero(t *testing.T) {
	// Tendencia decreciente: la proyección nunca es negativa.
	got := forecast.Project(-3, 2, 3, 4)
	for i, v := range got {
		assert.GreaterOrEqual(t, v, 0.0, "valor proyectado %d", i)
	}
	assert.Equal(t, 0.0, got[len(got)-1])
}

func TestProject_RedondeaADosDecimales(t *testing.T) {
	got := forecast.Project(0.1234, 0, 1, 1)
	assert.Equal(t, 0.12, got[0])
}
