package realtime_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/realtime"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// Requiere un Redis real: TEST_REDIS_ADDR=localhost:6379
func TestRedisNotifier_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no definido")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	// Prefijo propio para no cruzarse con otras ejecuciones.
	prefix := fmt.Sprintf("agro:test:%d", time.Now().UnixNano())
	n := realtime.NewRedisNotifierWithClient(client, prefix, logger.Nop())
	defer n.Close()

	subCtx, stop := context.WithCancel(ctx)
	got := make(chan ports.ChangeEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- n.Subscribe(subCtx, []string{ports.TableWarehouseStock}, func(e ports.ChangeEvent) { got <- e })
	}()

	sent := ports.ChangeEvent{Table: ports.TableWarehouseStock, Action: ports.ActionUpdate, ID: "p1", Timestamp: time.Now().UnixMilli()}
	var recv ports.ChangeEvent
	require.Eventually(t, func() bool {
		if err := n.Publish(ctx, sent); err != nil {
			return false
		}
		select {
		case recv = <-got:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, sent, recv)

	// Otra tabla no llega a este suscriptor.
	require.NoError(t, n.Publish(ctx, ports.ChangeEvent{Table: ports.TableProducts, Action: ports.ActionInsert, ID: "x"}))
	select {
	case e := <-got:
		assert.NotEqual(t, ports.TableProducts, e.Table)
	case <-time.After(200 * time.Millisecond):
	}

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe debe terminar al cancelar el contexto")
	}
}
