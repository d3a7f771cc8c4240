package mapper_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTimestamp_ZeroIsNil(t *testing.T) {
	assert.Nil(t, mapper.ToTimestamp(time.Time{}))
	assert.Nil(t, mapper.ToTimestampPtr(nil))
}

func TestTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 30, 0, 123, time.UTC)
	ts := mapper.ToTimestamp(now)
	require.NotNil(t, ts)
	assert.Equal(t, now.Unix(), ts.Seconds)
	assert.Equal(t, int64(123), ts.Nanoseconds)
	back := mapper.FromTimestamp(ts)
	require.NotNil(t, back)
	assert.True(t, now.Equal(*back))
}

func TestTimestamp_UnmarshalFlexible(t *testing.T) {
	var a, b, c dto.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`{"seconds":100,"nanoseconds":5}`), &a))
	assert.Equal(t, dto.Timestamp{Seconds: 100, Nanoseconds: 5}, a)

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-02"`), &b))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix(), b.Seconds)

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-02T03:04:05Z"`), &c))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Unix(), c.Seconds)

	assert.Error(t, json.Unmarshal([]byte(`"ayer"`), &a))
}

func TestToProductResponse_CopiesStockMap(t *testing.T) {
	p := &entity.Product{
		ID:             "p1",
		Name:           "Glifosato",
		Quantity:       decimal.NewFromInt(10),
		WarehouseStock: map[string]decimal.Decimal{"w1": decimal.NewFromInt(10)},
	}
	resp := mapper.ToProductResponse(p)
	require.NotNil(t, resp)
	resp.WarehouseStock["w1"] = decimal.Zero
	assert.True(t, p.WarehouseStock["w1"].Equal(decimal.NewFromInt(10)), "la respuesta no debe compartir el mapa de la entidad")
	assert.Nil(t, resp.CreatedAt)
}

func TestToTransferResponse_Items(t *testing.T) {
	tr := &entity.Transfer{
		ID:    "t1",
		Items: []entity.TransferItem{{ProductID: "p1", Quantity: decimal.NewFromInt(3)}},
	}
	resp := mapper.ToTransferResponse(tr)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "p1", resp.Products[0].ProductID)
	assert.Nil(t, mapper.ToTransferResponse(nil))
}
