package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"equipment-console/internal/model"

	"go.uber.org/zap"
)

const (
	DefaultSortColumn = "codeEqp"
	DefaultPageSize   = 10
)

var (
	// ErrSuperseded is returned by a load whose result was discarded
	// because a newer load started.
	ErrSuperseded = errors.New("load superseded by a newer request")
	// ErrNoPendingDelete is returned by ConfirmDelete when the id was not
	// marked by RequestDelete.
	ErrNoPendingDelete = errors.New("no deletion awaiting confirmation")
)

type ListStatus string

const (
	ListIdle    ListStatus = "idle"
	ListLoading ListStatus = "loading"
	ListLoaded  ListStatus = "loaded"
	ListFailed  ListStatus = "failed"
)

// EquipmentLister is the part of the equipment gateway the list needs.
type EquipmentLister interface {
	List(ctx context.Context, filter model.EquipmentFilter) ([]model.Equipment, error)
	Delete(ctx context.Context, id int64) error
}

// Query is the search, filter and sort input of the list.
type Query struct {
	Search    string
	Filter    model.EquipmentFilter
	SortBy    string
	Ascending bool
}

// Request returns the gateway filter for q. Search and sort fields of
// Filter are ignored in favor of the Query's own.
func (q Query) Request() model.EquipmentFilter {
	f := q.Filter
	f.Search = q.Search
	f.SortBy = q.SortBy
	asc := q.Ascending
	f.Ascending = &asc
	return f
}

// ListState is a copy of the controller state.
type ListState struct {
	Status        ListStatus        `json:"status"`
	Search        string            `json:"searchTerm"`
	SortBy        string            `json:"sortBy"`
	Ascending     bool              `json:"ascending"`
	Items         []model.Equipment `json:"items"`
	Error         string            `json:"error,omitempty"`
	PendingDelete *int64            `json:"pendingDelete,omitempty"`
	LoadedAt      time.Time         `json:"loadedAt,omitempty"`
	Generation    uint64            `json:"-"`
}

// ListController owns the equipment list state. State only changes through
// its transition methods, and every transition that changes the query
// re-fetches the whole list from the remote API.
type ListController struct {
	lister EquipmentLister
	logger *zap.Logger

	mu         sync.Mutex
	status     ListStatus
	query      Query
	items      []model.Equipment
	err        error
	pending    *int64
	loadedAt   time.Time
	generation uint64
	cancel     context.CancelFunc
}

func NewListController(lister EquipmentLister, logger *zap.Logger) *ListController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListController{
		lister: lister,
		logger: logger.Named("list"),
		status: ListIdle,
		query:  Query{SortBy: DefaultSortColumn, Ascending: true},
	}
}

// Snapshot returns the current state.
func (c *ListController) Snapshot() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ListController) snapshotLocked() ListState {
	s := ListState{
		Status:     c.status,
		Search:     c.query.Search,
		SortBy:     c.query.SortBy,
		Ascending:  c.query.Ascending,
		Items:      append([]model.Equipment(nil), c.items...),
		LoadedAt:   c.loadedAt,
		Generation: c.generation,
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	if c.pending != nil {
		id := *c.pending
		s.PendingDelete = &id
	}
	return s
}

// Query returns the current search, filter and sort.
func (c *ListController) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Reload re-fetches the list with the current query. Like every
// transition it returns the state produced by this load.
func (c *ListController) Reload(ctx context.Context) (ListState, error) {
	return c.transition(ctx, func(q *Query) {})
}

func (c *ListController) SetSearch(ctx context.Context, term string) (ListState, error) {
	return c.transition(ctx, func(q *Query) { q.Search = term })
}

func (c *ListController) SetFilter(ctx context.Context, filter model.EquipmentFilter) (ListState, error) {
	return c.transition(ctx, func(q *Query) { q.Filter = filter })
}

// ToggleSort flips the direction when column is already the sort column,
// otherwise sorts by column ascending.
func (c *ListController) ToggleSort(ctx context.Context, column string) (ListState, error) {
	return c.transition(ctx, func(q *Query) {
		if q.SortBy == column {
			q.Ascending = !q.Ascending
			return
		}
		q.SortBy = column
		q.Ascending = true
	})
}

// Apply replaces the whole query in one transition. An empty SortBy keeps
// the default column.
func (c *ListController) Apply(ctx context.Context, query Query) (ListState, error) {
	if query.SortBy == "" {
		query.SortBy = DefaultSortColumn
	}
	return c.transition(ctx, func(q *Query) { *q = query })
}

// transition mutates the query, cancels any load in flight and fetches.
// Results of a load that is no longer the latest are dropped.
func (c *ListController) transition(ctx context.Context, mutate func(q *Query)) (ListState, error) {
	c.mu.Lock()
	mutate(&c.query)
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.status = ListLoading
	c.err = nil
	filter := c.query.Request()
	c.mu.Unlock()

	defer cancel()
	items, err := c.lister.List(loadCtx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding stale list result", zap.Uint64("generation", gen))
		return ListState{}, ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		c.status = ListFailed
		c.err = err
		c.logger.Warn("failed to load equipment list", zap.Error(err))
		return ListState{}, err
	}
	c.status = ListLoaded
	c.items = items
	c.loadedAt = time.Now().UTC()
	return c.snapshotLocked(), nil
}

// Page returns the items of a 1-based page of the loaded list and the
// total item count. size <= 0 uses DefaultPageSize.
func (c *ListController) Page(page, size int) ([]model.Equipment, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PageItems(c.items, page, size)
}

// PageItems cuts a 1-based page out of items.
func PageItems(items []model.Equipment, page, size int) ([]model.Equipment, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	start := (page - 1) * size
	if start >= total {
		return []model.Equipment{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return append([]model.Equipment(nil), items[start:end]...), total
}

// RequestDelete marks id for deletion. Nothing is deleted until ConfirmDelete.
func (c *ListController) RequestDelete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &id
}

func (c *ListController) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ConfirmDelete deletes id when it is the equipment awaiting confirmation,
// then reloads the list. Any other id returns ErrNoPendingDelete and leaves
// the pending deletion untouched.
// A failed delete keeps the list as it was. A failed reload after a
// successful delete only shows in the list state.
func (c *ListController) ConfirmDelete(ctx context.Context, id int64) error {
	c.mu.Lock()
	if c.pending == nil || *c.pending != id {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	c.pending = nil
	c.mu.Unlock()

	if err := c.lister.Delete(ctx, id); err != nil {
		c.logger.Warn("failed to delete equipment", zap.Int64("equipment_id", id), zap.Error(err))
		return err
	}
	c.logger.Info("equipment deleted", zap.Int64("equipment_id", id))
	if _, err := c.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn("list reload after delete failed", zap.Error(err))
	}
	return nil
}
