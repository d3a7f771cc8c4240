package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/analytics"
	"github.com/jhoicas/agro-inventario/internal/application/auth"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/fumigation"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/application/purchase"
	"github.com/jhoicas/agro-inventario/internal/application/report"
	"github.com/jhoicas/agro-inventario/internal/application/transfer"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/excel"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/realtime"
	apphttp "github.com/jhoicas/agro-inventario/internal/interfaces/http"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// ─── Fixture ──────────────────────────────────────────────────────────────────

type apiFixture struct {
	app   *fiber.App
	users *usecase.UserUseCase
	done  chan struct{}
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	repos := store.Repos()
	notifier := realtime.NewLocalNotifier()
	events := inventory.NewPublisher(notifier, log)
	ledger := inventory.NewLedger()

	reports := report.NewUseCase(repos, pdf.NewFumigationOrderRenderer("test", time.UTC), excel.NewExporter(time.UTC), nil, log)
	users := usecase.NewUserUseCase(store.Users(), events)
	done := make(chan struct{})
	deps := apphttp.RouterDeps{
		AuthUC:       auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log),
		ProductUC:    inventory.NewProductUseCase(store, repos, events),
		WarehouseUC:  usecase.NewWarehouseUseCase(store, repos, events, log),
		TransferUC:   transfer.NewUseCase(store, repos, ledger, events, log),
		PurchaseUC:   purchase.NewUseCase(store, repos, ledger, events, log),
		FumigationUC: fumigation.NewUseCase(store, repos, ledger, nil, events, fumigation.Policy{}, log),
		FieldUC:      usecase.NewFieldUseCase(store, repos, events),
		UserUC:       users,
		DashboardUC:  analytics.NewDashboardUseCase(repos),
		ReportUC:     reports,
		Notifier:     notifier,
		Done:         done,
		JWTSecret:    testJWTSecret,
		Log:          log,
	}
	app := apphttp.NewApp("agro-inventario-test", log)
	apphttp.Router(app, deps)
	return &apiFixture{app: app, users: users, done: done}
}

// login crea el usuario y devuelve el header Authorization.
func (f *apiFixture) login(t *testing.T, email, role string, perms map[string]bool) string {
	t.Helper()
	_, err := f.users.Create(context.Background(), dto.CreateUserRequest{
		Email: email, Password: "clave-segura-1", Role: role, Permissions: perms,
	})
	require.NoError(t, err)

	var out dto.LoginResponse
	resp := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "clave-segura-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return "Bearer " + out.Token
}

func (f *apiFixture) do(t *testing.T, method, path, authHeader string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e dto.ErrorResponse
	decode(t, resp, &e)
	return e.Code
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *apiFixture) warehouse(t *testing.T, admin, name string) string {
	t.Helper()
	var w dto.WarehouseResponse
	resp := f.do(t, http.MethodPost, "/api/almacenes", admin, dto.CreateWarehouseRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &w)
	return w.ID
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestAPI_LoginCredencialesInvalidas(t *testing.T) {
	f := newAPI(t)
	f.login(t, "admin@finca.test", entity.RoleAdmin, nil)

	resp := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@finca.test", Password: "otra-clave"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
}

func TestAPI_Me(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "Admin@Finca.test", entity.RoleAdmin, nil)

	var me dto.UserResponse
	resp := f.do(t, http.MethodGet, "/api/auth/me", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &me)
	assert.Equal(t, "admin@finca.test", me.Email)
	assert.Equal(t, entity.RoleAdmin, me.Role)
}

func TestAPI_TransferenciaCompletaMueveStock(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)
	a := f.warehouse(t, admin, "Galpón central")
	b := f.warehouse(t, admin, "Depósito lote 4")

	var p dto.ProductResponse
	resp := f.do(t, http.MethodPost, "/api/productos", admin, dto.CreateProductRequest{
		Name:           "Glifosato 48%",
		Category:       "Herbicidas",
		UnitOfMeasure:  "L",
		WarehouseStock: map[string]decimal.Decimal{a: qty(10)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &p)

	resp = f.do(t, http.MethodPost, "/api/transferencias", admin, dto.CreateTransferRequest{
		SourceWarehouseID: a,
		TargetWarehouseID: b,
		Products:          []dto.TransferItemDTO{{ProductID: p.ID, Quantity: qty(4)}},
		Status:            entity.TransferCompleted,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var got dto.ProductResponse
	resp = f.do(t, http.MethodGet, "/api/productos/"+p.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.True(t, got.WarehouseStock[a].Equal(qty(6)), "origen: %s", got.WarehouseStock[a])
	assert.True(t, got.WarehouseStock[b].Equal(qty(4)), "destino: %s", got.WarehouseStock[b])
	assert.True(t, got.Quantity.Equal(qty(10)))

	// Más de lo disponible: 409 sin tocar el stock.
	resp = f.do(t, http.MethodPost, "/api/transferencias", admin, dto.CreateTransferRequest{
		SourceWarehouseID: a,
		TargetWarehouseID: b,
		Products:          []dto.TransferItemDTO{{ProductID: p.ID, Quantity: qty(100)}},
		Status:            entity.TransferCompleted,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))

	var history []dto.StockHistoryResponse
	resp = f.do(t, http.MethodGet, "/api/productos/historial?producto="+p.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &history)
	assert.NotEmpty(t, history)
	for _, h := range history {
		assert.Equal(t, p.ID, h.ProductID)
	}
}

func TestAPI_ErroresDeEntrada(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/productos", bytes.NewBufferString("{no es json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("Authorization", admin)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, "/api/transferencias", admin, dto.CreateTransferRequest{SourceWarehouseID: "x", TargetWarehouseID: "y"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))

	resp = f.do(t, http.MethodGet, "/api/productos/no-existe", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))

	resp = f.do(t, http.MethodGet, "/api/productos/historial?desde=ayer", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUERY", errorCode(t, resp))
}

func TestAPI_PermisosPorSeccion(t *testing.T) {
	f := newAPI(t)
	user := f.login(t, "bodega@finca.test", entity.RoleUser, map[string]bool{entity.PermProducts: true})

	resp := f.do(t, http.MethodGet, "/api/productos", user, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/transferencias", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/usuarios", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/productos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_AlmacenConStockNoSeElimina(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)
	a := f.warehouse(t, admin, "Galpón")

	resp := f.do(t, http.MethodPost, "/api/productos", admin, dto.CreateProductRequest{
		Name: "Urea", WarehouseStock: map[string]decimal.Decimal{a: qty(3)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodDelete, "/api/almacenes/"+a, admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "WAREHOUSE_HAS_STOCK", errorCode(t, resp))
}

func TestAPI_ReporteStockExcel(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)
	a := f.warehouse(t, admin, "Galpón")
	resp := f.do(t, http.MethodPost, "/api/productos", admin, dto.CreateProductRequest{
		Name: "Urea", Category: "Fertilizantes", WarehouseStock: map[string]decimal.Decimal{a: qty(3)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/reportes/stock.xlsx", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, report.ContentTypeXLSX, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "un .xlsx es un zip")
}

func TestAPI_ImagenSinAlmacenamiento(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)

	resp := f.do(t, http.MethodGet, "/api/fumigaciones/no-existe/imagen", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_IdentificadoresMalFormados(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)

	for _, path := range []string{
		"/api/productos/abc",
		"/api/almacenes/abc",
		"/api/transferencias/abc",
		"/api/compras/abc",
		"/api/fumigaciones/abc",
		"/api/campos/abc",
		"/api/usuarios/abc",
	} {
		resp := f.do(t, http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp), path)
	}

	resp := f.do(t, http.MethodPost, "/api/productos", admin, dto.CreateProductRequest{ID: "urea-01", Name: "Urea"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))

	// Una línea con productId libre nunca podría recibirse en Postgres.
	resp = f.do(t, http.MethodPost, "/api/compras", admin, dto.CreatePurchaseRequest{
		Supplier: "Agroquímica SA",
		Invoice:  "F-001",
		Products: []dto.PurchaseItemRequest{{ProductID: "nuevo", Name: "Urea", Quantity: qty(5), UnitPrice: qty(2)}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))

	a := f.warehouse(t, admin, "Galpón")
	resp = f.do(t, http.MethodPost, "/api/productos", admin, dto.CreateProductRequest{
		Name: "Urea", WarehouseStock: map[string]decimal.Decimal{"galpon": qty(3), a: qty(1)},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_CambiosEnVivo(t *testing.T) {
	f := newAPI(t)
	admin := f.login(t, "admin@finca.test", entity.RoleAdmin, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = f.app.Listener(ln) }()

	req, err := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/api/cambios?tablas=warehouses", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/event-stream"))

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	// La suscripción se registra en segundo plano: se crean almacenes hasta ver el primer evento.
	var frame string
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
	created := 0
wait:
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "el stream se cerró sin eventos")
			if strings.HasPrefix(line, "data: ") {
				frame = strings.TrimPrefix(line, "data: ")
				break wait
			}
		case <-tick.C:
			created++
			f.warehouse(t, admin, fmt.Sprintf("Galpón %d", created))
		case <-deadline:
			t.Fatal("no llegó ningún evento de almacenes")
		}
	}

	var evt ports.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(frame), &evt))
	assert.Equal(t, ports.TableWarehouses, evt.Table)
	assert.Equal(t, ports.ActionInsert, evt.Action)
	assert.NotEmpty(t, evt.ID)
	assert.NotZero(t, evt.Timestamp)

	// Al iniciar el apagado el stream termina y el servidor no queda esperando.
	close(f.done)
	stopped := make(chan error, 1)
	go func() { stopped <- f.app.ShutdownWithTimeout(5 * time.Second) }()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("el apagado quedó bloqueado por el stream abierto")
	}
	for range lines {
	}
}
