package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalNotifier_DeliversOnlySubscribedTables(t *testing.T) {
	n := realtime.NewLocalNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan ports.ChangeEvent, 4)
	done := make(chan struct{})
	go func() {
		_ = n.Subscribe(ctx, []string{ports.TableTransfers}, func(e ports.ChangeEvent) { got <- e })
		close(done)
	}()

	// Espera a que la suscripción quede registrada.
	require.Eventually(t, func() bool {
		_ = n.Publish(ctx, ports.ChangeEvent{Table: ports.TableTransfers, Action: ports.ActionInsert, ID: "t1"})
		select {
		case e := <-got:
			return e.ID == "t1"
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, n.Publish(ctx, ports.ChangeEvent{Table: ports.TableProducts, ID: "p1"}))
	select {
	case e := <-got:
		assert.NotEqual(t, "p1", e.ID, "no debe recibir eventos de otras tablas")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe debe terminar al cancelar el contexto")
	}
}
