package stock_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/stock"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ts(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func tsp(day int) *time.Time {
	t := ts(day)
	return &t
}

func lote(id string, qty int64, entered int, expiry *time.Time) *entity.Lot {
	return &entity.Lot{ID: id, LotCode: id, Quantity: d(qty), EnteredAt: ts(entered), Expiry: expiry}
}

func TestUsesFIFO(t *testing.T) {
	assert.True(t, stock.UsesFIFO("hardware"))
	assert.True(t, stock.UsesFIFO("  Painel "), "debe normalizar espacios y mayúsculas")
	assert.False(t, stock.UsesFIFO("insumo"))
	assert.False(t, stock.UsesFIFO(""))
}

// FIFO: orden estrictamente por fecha de entrada, el vencimiento no cuenta.
func TestOrderLotsForIssue_FIFO(t *testing.T) {
	item := &entity.Item{Type: "hardware"}
	lots := []*entity.Lot{
		lote("c", 5, 10, tsp(12)), // entró último pero vence primero
		lote("a", 5, 1, nil),
		lote("b", 5, 5, tsp(30)),
	}

	got := stock.OrderLotsForIssue(item, lots)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

// FEFO: vencimiento ascendente, sin vencimiento al final, empates por entrada.
func TestOrderLotsForIssue_FEFO(t *testing.T) {
	item := &entity.Item{Type: "insumo"}
	lots := []*entity.Lot{
		lote("sin-vto", 5, 1, nil),
		lote("tarde", 5, 2, tsp(25)),
		lote("pronto", 5, 9, tsp(10)),
		lote("empate-nuevo", 5, 8, tsp(25)),
	}

	got := stock.OrderLotsForIssue(item, lots)

	require.Len(t, got, 4)
	assert.Equal(t, "pronto", got[0].ID)
	assert.Equal(t, "tarde", got[1].ID, "empate de vencimiento: gana el que entró antes")
	assert.Equal(t, "empate-nuevo", got[2].ID)
	assert.Equal(t, "sin-vto", got[3].ID, "los lotes sin vencimiento van al final")
}

func TestOrderLotsForIssue_DescartaVacios(t *testing.T) {
	item := &entity.Item{Type: "insumo"}
	lots := []*entity.Lot{
		lote("vacio", 0, 1, tsp(5)),
		lote("vivo", 3, 2, tsp(20)),
	}

	got := stock.OrderLotsForIssue(item, lots)

	require.Len(t, got, 1)
	assert.Equal(t, "vivo", got[0].ID)
}

func TestOrderLotsForIssue_NoMutaLaEntrada(t *testing.T) {
	item := &entity.Item{Type: "insumo"}
	lots := []*entity.Lot{
		lote("b", 5, 2, tsp(25)),
		lote("a", 5, 1, tsp(10)),
	}

	_ = stock.OrderLotsForIssue(item, lots)

	assert.Equal(t, "b", lots[0].ID, "el slice original debe quedar intacto")
	assert.Equal(t, "a", lots[1].ID)
}
