// Package fumigation gestiona las órdenes de aplicación (pending -> in_progress -> completed | cancelled)
// y descuenta los productos del stock al completarlas.
package fumigation

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
	"github.com/shopspring/decimal"
)

// Policy decisiones configurables del flujo de fumigación.
type Policy struct {
	// RequireStock: al completar, valida suficiencia por línea como en transferencias.
	RequireStock bool
	// ReconvertOnRecompute: al cambiar la superficie, vuelve a aplicar la conversión cc/ha y g/ha.
	ReconvertOnRecompute bool
}

// Image adjunto de una orden.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UseCase controlador de fumigaciones.
type UseCase struct {
	tx     inventory.TxRunner
	repos  inventory.Repos
	ledger *inventory.Ledger
	blobs  ports.BlobStore
	events *inventory.Publisher
	policy Policy
	log    *logger.Logger
	now    func() time.Time
}

// NewUseCase construye el controlador. blobs puede ser nil (sin imágenes).
func NewUseCase(
	tx inventory.TxRunner,
	repos inventory.Repos,
	ledger *inventory.Ledger,
	blobs ports.BlobStore,
	events *inventory.Publisher,
	policy Policy,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		tx:     tx,
		repos:  repos,
		ledger: ledger,
		blobs:  blobs,
		events: events,
		policy: policy,
		log:    log.Named("fumigation"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListQuery filtros del listado.
type ListQuery struct {
	Status  string
	FieldID string
	Crop    string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// List lista órdenes, número de orden descendente.
func (uc *UseCase) List(ctx context.Context, q ListQuery) ([]dto.FumigationResponse, error) {
	list, err := uc.repos.Fumigations.List(ctx, repository.FumigationFilter{
		Status:  q.Status,
		FieldID: q.FieldID,
		Crop:    q.Crop,
		From:    q.From,
		To:      q.To,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return mapper.ToFumigationResponses(list), nil
}

// GetByID obtiene una orden.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.FumigationResponse, error) {
	f, err := uc.repos.Fumigations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return mapper.ToFumigationResponse(f), nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Invalid("%s es obligatorio", field)
	}
	return nil
}

func validateSurface(surface *decimal.Decimal) error {
	if surface == nil {
		return domain.Invalid("la superficie es obligatoria")
	}
	if !surface.IsPositive() {
		return domain.Invalid("la superficie debe ser mayor que cero")
	}
	return nil
}

// buildLines valida las líneas, resuelve el nombre del producto y calcula los totales.
func buildLines(ctx context.Context, r inventory.Repos, surface decimal.Decimal, in []dto.FumigationProductRequest) ([]entity.FumigationProduct, error) {
	if len(in) == 0 {
		return nil, domain.Invalid("la orden necesita al menos un producto")
	}
	lines := make([]entity.FumigationProduct, 0, len(in))
	for i, l := range in {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, domain.Invalid("línea %d: seleccione un producto", i+1)
		}
		if strings.TrimSpace(l.WarehouseID) == "" {
			return nil, domain.Invalid("línea %d: seleccione un almacén", i+1)
		}
		if !l.DosePerHa.IsPositive() {
			return nil, domain.Invalid("línea %d: ingrese una dosis válida", i+1)
		}
		if strings.TrimSpace(l.DoseUnit) == "" {
			return nil, domain.Invalid("línea %d: unidad de dosis obligatoria", i+1)
		}
		p, err := r.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
		}
		w, err := r.Warehouses.GetByID(ctx, l.WarehouseID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, fmt.Errorf("%w: almacén %s", domain.ErrNotFound, l.WarehouseID)
		}
		total, unit := ComputeTotal(surface, l.DosePerHa, l.DoseUnit)
		lines = append(lines, entity.FumigationProduct{
			ProductID:     l.ProductID,
			ProductName:   p.Name,
			WarehouseID:   l.WarehouseID,
			DosePerHa:     l.DosePerHa,
			DoseUnit:      strings.TrimSpace(l.DoseUnit),
			TotalQuantity: total,
			TotalUnit:     unit,
		})
	}
	return lines, nil
}

// Create valida la orden, reserva el siguiente número de orden y la guarda en pending.
// img es opcional; si su subida falla la orden se guarda igual.
func (uc *UseCase) Create(ctx context.Context, userID string, in dto.CreateFumigationRequest, img *Image) (*dto.FumigationResponse, error) {
	for _, check := range []error{
		requireText("el establecimiento", in.Establishment),
		requireText("el aplicador", in.Applicator),
		requireText("el cultivo", in.Crop),
		requireText("el lote", in.Lot),
		validateSurface(in.Surface),
	} {
		if check != nil {
			return nil, check
		}
	}
	if len(in.Products) == 0 {
		return nil, domain.Invalid("la orden necesita al menos un producto")
	}

	now := uc.now()
	date := now
	if t := mapper.FromTimestamp(in.Date); t != nil {
		date = *t
	}
	f := &entity.Fumigation{
		ID:            uuid.New().String(),
		Date:          date,
		FieldID:       strings.TrimSpace(in.FieldID),
		Establishment: strings.TrimSpace(in.Establishment),
		Applicator:    strings.TrimSpace(in.Applicator),
		Crop:          strings.TrimSpace(in.Crop),
		Lot:           strings.TrimSpace(in.Lot),
		Surface:       *in.Surface,
		Observations:  in.Observations,
		Status:        entity.FumigationPending,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		if f.FieldID != "" {
			field, err := r.Fields.GetByID(ctx, f.FieldID)
			if err != nil {
				return err
			}
			if field == nil {
				return fmt.Errorf("%w: campo %s", domain.ErrNotFound, f.FieldID)
			}
		}
		lines, err := buildLines(ctx, r, f.Surface, in.Products)
		if err != nil {
			return err
		}
		f.Products = lines
		number, err := r.Fumigations.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		f.OrderNumber = number
		return r.Fumigations.Create(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFumigations, Action: ports.ActionInsert, ID: f.ID}})
	uc.log.Info().Str("fumigation_id", f.ID).Int("order_number", f.OrderNumber).Msg("orden de aplicación creada")

	if img != nil {
		uc.attachBestEffort(ctx, f, img)
	}
	return mapper.ToFumigationResponse(f), nil
}

// Update edita una orden no terminal. Si llegan productos se recalculan con conversión;
// si solo cambia la superficie, los totales existentes se recalculan según la política.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.UpdateFumigationRequest, img *Image) (*dto.FumigationResponse, error) {
	var result *entity.Fumigation
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		f, err := r.Fumigations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return domain.ErrNotFound
		}
		if f.IsTerminal() {
			return fmt.Errorf("%w: la orden %d está %s", domain.ErrConflict, f.OrderNumber, f.Status)
		}
		if t := mapper.FromTimestamp(in.Date); t != nil {
			f.Date = *t
		}
		if in.FieldID != nil {
			f.FieldID = strings.TrimSpace(*in.FieldID)
		}
		for _, patch := range []struct {
			label string
			src   *string
			dst   *string
		}{
			{"el establecimiento", in.Establishment, &f.Establishment},
			{"el aplicador", in.Applicator, &f.Applicator},
			{"el cultivo", in.Crop, &f.Crop},
			{"el lote", in.Lot, &f.Lot},
		} {
			if patch.src == nil {
				continue
			}
			if err := requireText(patch.label, *patch.src); err != nil {
				return err
			}
			*patch.dst = strings.TrimSpace(*patch.src)
		}
		if in.Observations != nil {
			f.Observations = *in.Observations
		}
		surfaceChanged := false
		if in.Surface != nil {
			if err := validateSurface(in.Surface); err != nil {
				return err
			}
			surfaceChanged = !in.Surface.Equal(f.Surface)
			f.Surface = *in.Surface
		}
		switch {
		case in.Products != nil:
			lines, err := buildLines(ctx, r, f.Surface, in.Products)
			if err != nil {
				return err
			}
			f.Products = lines
		case surfaceChanged:
			recomputeTotals(f.Products, f.Surface, uc.policy.ReconvertOnRecompute)
		}
		f.UpdatedAt = uc.now()
		result = f
		return r.Fumigations.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFumigations, Action: ports.ActionUpdate, ID: id}})
	if img != nil {
		uc.attachBestEffort(ctx, result, img)
	}
	return mapper.ToFumigationResponse(result), nil
}

// UpdateStatus aplica la tabla de transiciones. in_progress sella el inicio; completed sella el
// fin y descuenta totalQuantity de cada línea (con piso en cero, salvo RequireStock).
func (uc *UseCase) UpdateStatus(ctx context.Context, userID, id, newStatus string) (*dto.FumigationResponse, error) {
	var (
		result  *entity.Fumigation
		changes inventory.Changes
	)
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		f, err := r.Fumigations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return domain.ErrNotFound
		}
		if !entity.CanFumigationTransition(f.Status, newStatus) {
			return &domain.InvalidTransitionError{Entity: "fumigación", From: f.Status, To: newStatus}
		}
		now := uc.now()
		switch newStatus {
		case entity.FumigationInProgress:
			f.StartDatetime = &now
		case entity.FumigationCompleted:
			f.EndDatetime = &now
			if err := uc.consume(ctx, r, f, userID, &changes); err != nil {
				return err
			}
		}
		f.Status = newStatus
		f.UpdatedAt = now
		result = f
		changes.Add(ports.TableFumigations, ports.ActionUpdate, f.ID)
		return r.Fumigations.Update(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, changes)
	uc.log.Info().Str("fumigation_id", id).Str("status", newStatus).Msg("estado de fumigación actualizado")
	return mapper.ToFumigationResponse(result), nil
}

func (uc *UseCase) consume(ctx context.Context, r inventory.Repos, f *entity.Fumigation, userID string, changes *inventory.Changes) error {
	if uc.policy.RequireStock {
		type key struct{ product, warehouse string }
		requested := map[key]decimal.Decimal{}
		names := map[string]string{}
		var order []key
		for _, l := range f.Products {
			k := key{l.ProductID, l.WarehouseID}
			if _, ok := requested[k]; !ok {
				order = append(order, k)
			}
			requested[k] = requested[k].Add(l.TotalQuantity)
			names[l.ProductID] = l.ProductName
		}
		for _, k := range order {
			if err := uc.ledger.EnsureAvailable(ctx, r, k.product, names[k.product], k.warehouse, requested[k]); err != nil {
				return err
			}
		}
	}
	for _, l := range f.Products {
		if _, err := uc.ledger.ApplyDelta(ctx, r, l.ProductID, l.WarehouseID, l.TotalQuantity.Neg(), inventory.HistoryMeta{
			Type:         entity.HistoryFumigation,
			FumigationID: f.ID,
			UserID:       userID,
			Notes:        fmt.Sprintf("Orden de aplicación N° %d", f.OrderNumber),
		}); err != nil {
			return err
		}
		changes.AddStock(l.ProductID)
	}
	return nil
}

// Delete elimina la orden y, best-effort, su imagen.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	var imagePath string
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		f, err := r.Fumigations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return domain.ErrNotFound
		}
		imagePath = f.ImagePath
		return r.Fumigations.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFumigations, Action: ports.ActionDelete, ID: id}})
	if imagePath != "" && uc.blobs != nil {
		if err := uc.blobs.Remove(ctx, imagePath); err != nil {
			uc.log.Warn().Err(err).Str("path", imagePath).Msg("no se pudo borrar la imagen de la fumigación")
		}
	}
	return nil
}

// AttachImage sube (o reemplaza) la imagen de la orden. A diferencia del guardado de la orden,
// aquí el fallo de subida sí se devuelve; solo el borrado de la imagen anterior es best-effort.
func (uc *UseCase) AttachImage(ctx context.Context, id string, img Image) (*dto.FumigationResponse, error) {
	if uc.blobs == nil {
		return nil, fmt.Errorf("%w: almacenamiento de archivos no configurado", domain.ErrConflict)
	}
	if len(img.Data) == 0 {
		return nil, domain.Invalid("la imagen está vacía")
	}
	f, err := uc.repos.Fumigations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.attach(ctx, f, &img); err != nil {
		return nil, err
	}
	return mapper.ToFumigationResponse(f), nil
}

// ImageURL URL pública de la imagen de la orden.
func (uc *UseCase) ImageURL(ctx context.Context, id string) (string, error) {
	f, err := uc.repos.Fumigations.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if f == nil || f.ImagePath == "" {
		return "", domain.ErrNotFound
	}
	if uc.blobs == nil {
		return "", fmt.Errorf("%w: almacenamiento de archivos no configurado", domain.ErrConflict)
	}
	return uc.blobs.PublicURL(ctx, f.ImagePath)
}

func (uc *UseCase) attachBestEffort(ctx context.Context, f *entity.Fumigation, img *Image) {
	if uc.blobs == nil {
		uc.log.Warn().Str("fumigation_id", f.ID).Msg("imagen descartada: almacenamiento no configurado")
		return
	}
	if err := uc.attach(ctx, f, img); err != nil {
		uc.log.Warn().Err(err).Str("fumigation_id", f.ID).Msg("no se pudo guardar la imagen de la fumigación")
	}
}

// attach sube la nueva imagen, actualiza imagePath y borra la anterior.
func (uc *UseCase) attach(ctx context.Context, f *entity.Fumigation, img *Image) error {
	key := imageKey(f.ID, img.Filename)
	if err := uc.blobs.Upload(ctx, key, img.ContentType, img.Data); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	var previous string
	err := uc.tx.Run(ctx, func(r inventory.Repos) error {
		current, err := r.Fumigations.GetForUpdate(ctx, f.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		previous = current.ImagePath
		current.ImagePath = key
		current.UpdatedAt = uc.now()
		*f = *current
		return r.Fumigations.Update(ctx, current)
	})
	if err != nil {
		if rmErr := uc.blobs.Remove(ctx, key); rmErr != nil {
			uc.log.Warn().Err(rmErr).Str("path", key).Msg("no se pudo limpiar la imagen subida")
		}
		return err
	}
	uc.events.Publish(ctx, inventory.Changes{{Table: ports.TableFumigations, Action: ports.ActionUpdate, ID: f.ID}})
	if previous != "" && previous != key {
		if err := uc.blobs.Remove(ctx, previous); err != nil {
			uc.log.Warn().Err(err).Str("path", previous).Msg("no se pudo borrar la imagen anterior")
		}
	}
	return nil
}

func imageKey(fumigationID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("fumigaciones/%s/%s%s", fumigationID, uuid.New().String(), ext)
}
