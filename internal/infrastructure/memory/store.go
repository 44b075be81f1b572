package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/perecederos-api/internal/application/inventory"
	"github.com/jhoicas/perecederos-api/internal/domain/entity"
	"github.com/jhoicas/perecederos-api/internal/domain/repository"
)

var (
	_ repository.LotRepository = (*Store)(nil)
	_ inventory.TxRunner       = (*Store)(nil)
)

// Store almacén de lotes en memoria. Implementa LotRepository y TxRunner.
// Las transacciones se serializan con un mutex y trabajan sobre una copia del estado,
// que solo reemplaza al original si fn termina sin error.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

// Option ajusta el Store.
type Option func(*Store)

// WithClock reemplaza el reloj usado para decidir si un lote está vigente.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore crea un almacén vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: state{lots: make(map[int64]entity.Lot)},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ejecuta fn en exclusión mutua sobre una copia del estado; Commit si fn devuelve nil.
// Al igual que now() en PostgreSQL, el instante de referencia se fija al iniciar la tx.
func (s *Store) Run(ctx context.Context, fn func(lots repository.LotRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(&view{st: &snapshot, now: s.now()}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func (s *Store) Summary(ctx context.Context, item string) (*entity.ItemLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).Summary(ctx, item)
}

func (s *Store) AvailableQuantity(ctx context.Context, item string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).AvailableQuantity(ctx, item)
}

func (s *Store) Create(ctx context.Context, lot *entity.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).Create(ctx, lot)
}

func (s *Store) FirstLive(ctx context.Context, item string) (*entity.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).FirstLive(ctx, item)
}

func (s *Store) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).UpdateQuantity(ctx, id, quantity)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).Delete(ctx, id)
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).DeleteExpired(ctx)
}

func (s *Store) ListByItem(ctx context.Context, item string) ([]entity.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&view{st: &s.state, now: s.now()}).ListByItem(ctx, item)
}

// state filas de lotes indexadas por id; nextID emula BIGSERIAL.
type state struct {
	lots   map[int64]entity.Lot
	nextID int64
}

func (st state) clone() state {
	cp := state{lots: make(map[int64]entity.Lot, len(st.lots)), nextID: st.nextID}
	for id, l := range st.lots {
		cp.lots[id] = l
	}
	return cp
}

// sorted devuelve los lotes del ítem ordenados por expiry, id.
func (st *state) sorted(item string) []entity.Lot {
	list := make([]entity.Lot, 0)
	for _, l := range st.lots {
		if l.Item == item {
			list = append(list, l)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Expiry.Equal(list[j].Expiry) {
			return list[i].Expiry.Before(list[j].Expiry)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// view aplica las operaciones de LotRepository sobre un estado con un instante de referencia fijo.
// No toma locks: el llamador ya los tiene.
type view struct {
	st  *state
	now time.Time
}

func (v *view) Summary(ctx context.Context, item string) (*entity.ItemLot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &entity.ItemLot{Item: item}
	for _, l := range v.st.sorted(item) {
		if !l.IsLive(v.now) {
			continue
		}
		out.Quantity += l.Quantity
		if out.Expiry == nil {
			expiry := l.Expiry
			out.Expiry = &expiry
		}
	}
	return out, nil
}

func (v *view) AvailableQuantity(ctx context.Context, item string) (int, error) {
	summary, err := v.Summary(ctx, item)
	if err != nil {
		return 0, err
	}
	return summary.Quantity, nil
}

func (v *view) Create(ctx context.Context, lot *entity.Lot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.st.nextID++
	lot.ID = v.st.nextID
	v.st.lots[lot.ID] = *lot
	return nil
}

func (v *view) FirstLive(ctx context.Context, item string) (*entity.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, l := range v.st.sorted(item) {
		if l.IsLive(v.now) && l.Quantity > 0 {
			lot := l
			return &lot, nil
		}
	}
	return nil, nil
}

func (v *view) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l, ok := v.st.lots[id]; ok {
		l.Quantity = quantity
		v.st.lots[id] = l
	}
	return nil
}

func (v *view) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(v.st.lots, id)
	return nil
}

func (v *view) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	for id, l := range v.st.lots {
		if !l.IsLive(v.now) {
			delete(v.st.lots, id)
			n++
		}
	}
	return n, nil
}

func (v *view) ListByItem(ctx context.Context, item string) ([]entity.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.st.sorted(item), nil
}
