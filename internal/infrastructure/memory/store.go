// Package memory implementa los puertos de persistencia en memoria, con transacciones
// serializadas y rollback por snapshot. Se usa en pruebas y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

type cellKey struct {
	productID   string
	warehouseID string
}

type state struct {
	products        map[string]entity.Product
	cells           map[cellKey]entity.StockCell
	history         []entity.StockHistoryEntry
	warehouses      map[string]entity.Warehouse
	transfers       map[string]entity.Transfer
	purchases       map[string]entity.Purchase
	purchaseHistory []entity.PurchaseHistoryEntry
	fumigations     map[string]entity.Fumigation
	fields          map[string]entity.Field
	users           map[string]entity.User
}

func newState() state {
	return state{
		products:    map[string]entity.Product{},
		cells:       map[cellKey]entity.StockCell{},
		warehouses:  map[string]entity.Warehouse{},
		transfers:   map[string]entity.Transfer{},
		purchases:   map[string]entity.Purchase{},
		fumigations: map[string]entity.Fumigation{},
		fields:      map[string]entity.Field{},
		users:       map[string]entity.User{},
	}
}

func (s state) clone() state {
	c := state{
		products:        make(map[string]entity.Product, len(s.products)),
		cells:           make(map[cellKey]entity.StockCell, len(s.cells)),
		history:         append([]entity.StockHistoryEntry(nil), s.history...),
		warehouses:      make(map[string]entity.Warehouse, len(s.warehouses)),
		transfers:       make(map[string]entity.Transfer, len(s.transfers)),
		purchases:       make(map[string]entity.Purchase, len(s.purchases)),
		purchaseHistory: make([]entity.PurchaseHistoryEntry, 0, len(s.purchaseHistory)),
		fumigations:     make(map[string]entity.Fumigation, len(s.fumigations)),
		fields:          make(map[string]entity.Field, len(s.fields)),
		users:           make(map[string]entity.User, len(s.users)),
	}
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.cells {
		c.cells[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.purchases {
		c.purchases[k] = clonePurchase(v)
	}
	for _, v := range s.purchaseHistory {
		c.purchaseHistory = append(c.purchaseHistory, clonePurchaseHistory(v))
	}
	for k, v := range s.fumigations {
		c.fumigations[k] = cloneFumigation(v)
	}
	for k, v := range s.fields {
		c.fields[k] = cloneField(v)
	}
	for k, v := range s.users {
		c.users[k] = cloneUser(v)
	}
	return c
}

// Store estado compartido en memoria. Un único mutex serializa transacciones y lecturas.
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// session liga los repositorios al store; dentro de una tx el lock ya lo tiene Run.
type session struct {
	store  *Store
	locked bool
}

func (x session) guard() func() {
	if x.locked {
		return func() {}
	}
	x.store.mu.Lock()
	return x.store.mu.Unlock
}

func (x session) state() *state { return &x.store.st }

func (s *Store) repos(locked bool) inventory.Repos {
	x := session{store: s, locked: locked}
	return inventory.Repos{
		Products:        &productRepo{x},
		Stock:           &stockRepo{x},
		History:         &historyRepo{x},
		Warehouses:      &warehouseRepo{x},
		Transfers:       &transferRepo{x},
		Purchases:       &purchaseRepo{x},
		PurchaseHistory: &purchaseHistoryRepo{x},
		Fumigations:     &fumigationRepo{x},
		Fields:          &fieldRepo{x},
	}
}

// Repos devuelve repositorios fuera de transacción (cada llamada toma el lock).
func (s *Store) Repos() inventory.Repos { return s.repos(false) }

// Users repositorio de usuarios fuera de transacción.
func (s *Store) Users() repository.UserRepository { return &userRepo{session{store: s}} }

// Run ejecuta fn con el store bloqueado; si fn falla restaura el snapshot previo.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(s.repos(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

var _ inventory.TxRunner = (*Store)(nil)
