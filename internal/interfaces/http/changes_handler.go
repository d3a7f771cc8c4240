package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

var observableTables = []string{
	ports.TableProducts,
	ports.TableWarehouses,
	ports.TableWarehouseStock,
	ports.TableStockHistory,
	ports.TableTransfers,
	ports.TablePurchases,
	ports.TableFumigations,
	ports.TableFields,
	ports.TableUsers,
}

// ChangesHandler feed de cambios por tabla vía Server-Sent Events.
type ChangesHandler struct {
	notifier  ports.ChangeNotifier
	heartbeat time.Duration
	done      <-chan struct{}
	log       *logger.Logger
}

// NewChangesHandler construye el handler. Al cerrarse done terminan todos los streams
// abiertos; el servidor no puede apagarse mientras quede alguno.
func NewChangesHandler(notifier ports.ChangeNotifier, done <-chan struct{}, log *logger.Logger) *ChangesHandler {
	return &ChangesHandler{notifier: notifier, heartbeat: defaultHeartbeat, done: done, log: log.Named("changes")}
}

// Stream godoc
// @Summary      Suscripción a cambios
// @Description  Emite un evento SSE por cada escritura en las tablas pedidas. El cliente relee la lista al recibirlo.
// @Tags         cambios
// @Security     Bearer
// @Produce      text/event-stream
// @Param        tablas  query  string  false  "Tablas separadas por coma (todas si se omite)"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/cambios [get]
func (h *ChangesHandler) Stream(c *fiber.Ctx) error {
	tables, err := parseTables(c.Query("tablas"))
	if err != nil {
		return err
	}
	userID := GetUserID(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// El contexto de Fiber se recicla al salir del handler; la suscripción vive con el stream.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := make(chan ports.ChangeEvent, 64)
		subDone := make(chan error, 1)
		go func() {
			subDone <- h.notifier.Subscribe(ctx, tables, func(evt ports.ChangeEvent) {
				select {
				case events <- evt:
				case <-ctx.Done():
				}
			})
		}()

		h.log.Debug().Str("user_id", userID).Strs("tables", tables).Msg("suscripción abierta")
		defer h.log.Debug().Str("user_id", userID).Msg("suscripción cerrada")

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": conectado\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case evt := <-events:
				if err := writeEvent(w, evt); err != nil {
					h.log.Warn().Err(err).Msg("evento descartado")
					continue
				}
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case <-h.done:
				return
			case err := <-subDone:
				if err != nil && ctx.Err() == nil {
					h.log.Error().Err(err).Msg("suscripción terminada")
				}
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, evt ports.ChangeEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Table, data)
	return err
}

// parseTables valida la lista "a,b". Vacía equivale a todas las tablas.
func parseTables(raw string) ([]string, error) {
	known := make(map[string]bool, len(observableTables))
	for _, t := range observableTables {
		known[t] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToLower(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		if !known[t] {
			return nil, badRequest("INVALID_QUERY", "tabla desconocida: "+t)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return append([]string(nil), observableTables...), nil
	}
	return out, nil
}
