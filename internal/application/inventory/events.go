package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// Changes acumula los eventos de una operación para publicarlos después del commit.
type Changes []ports.ChangeEvent

// Add registra un cambio; los repetidos (misma tabla, acción e id) se ignoran.
func (c *Changes) Add(table, action, id string) {
	for _, e := range *c {
		if e.Table == table && e.Action == action && e.ID == id {
			return
		}
	}
	*c = append(*c, ports.ChangeEvent{Table: table, Action: action, ID: id})
}

// AddStock registra los cambios que produce un movimiento del libro de stock.
func (c *Changes) AddStock(productID string) {
	c.Add(ports.TableWarehouseStock, ports.ActionUpdate, productID)
	c.Add(ports.TableProducts, ports.ActionUpdate, productID)
	c.Add(ports.TableStockHistory, ports.ActionInsert, productID)
}

// Publisher envía los eventos al ChangeNotifier. Es best-effort: los errores se registran
// en Warn y no se devuelven, la escritura ya está confirmada.
type Publisher struct {
	notifier ports.ChangeNotifier
	log      *logger.Logger
}

// NewPublisher construye el publicador. notifier nil desactiva la publicación.
func NewPublisher(notifier ports.ChangeNotifier, log *logger.Logger) *Publisher {
	return &Publisher{notifier: notifier, log: log}
}

// Publish envía cada evento con el timestamp actual.
func (p *Publisher) Publish(ctx context.Context, changes Changes) {
	if p == nil || p.notifier == nil {
		return
	}
	ts := time.Now().UnixMilli()
	for _, evt := range changes {
		evt.Timestamp = ts
		if err := p.notifier.Publish(ctx, evt); err != nil && p.log != nil {
			p.log.Warn().Err(err).Str("table", evt.Table).Str("id", evt.ID).Msg("no se pudo publicar el cambio")
		}
	}
}
