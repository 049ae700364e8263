package board

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
)

// CardStore is the persistence boundary the controller writes through.
type CardStore interface {
	FetchCards(ctx context.Context) ([]domain.Card, error)
	InsertCard(ctx context.Context, title, content string, column domain.Column, position int) (domain.Card, error)
	UpdateCard(ctx context.Context, id string, upd domain.CardUpdate) error
	DeleteCard(ctx context.Context, id string) error
}

// Controller owns the in-memory column lists and keeps them in sync with the
// card store. The lists are a disposable cache; storage is the source of
// truth and Load rebuilds everything from a full ordered fetch.
type Controller struct {
	store CardStore
	log   *log.Logger

	mu        sync.RWMutex
	columns   map[domain.Column][]domain.Card
	divergent bool
}

// New creates a controller over the given store. The board starts empty
// until the first successful Load.
func New(store CardStore, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{store: store, log: logger, columns: emptyColumns()}
}

func emptyColumns() map[domain.Column][]domain.Card {
	cols := make(map[domain.Column][]domain.Card, len(domain.Columns))
	for _, col := range domain.Columns {
		cols[col] = []domain.Card{}
	}
	return cols
}

// Load replaces the in-memory state from a full fetch, grouped by column in
// position order. On fetch failure the previous state is kept untouched and
// the error returned; callers may keep serving the stale snapshot.
func (c *Controller) Load(ctx context.Context) error {
	cards, err := c.store.FetchCards(ctx)
	if err != nil {
		c.log.WithError(err).Warn("board load failed, keeping previous state")
		return err
	}
	b := domain.GroupByColumn(cards)
	c.mu.Lock()
	c.columns = map[domain.Column][]domain.Card{
		domain.ColumnTodo:  b.Todo,
		domain.ColumnDoing: b.Doing,
		domain.ColumnDone:  b.Done,
	}
	c.divergent = false
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the three ordered lists.
func (c *Controller) Snapshot() domain.Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.Board{
		Todo:  append([]domain.Card{}, c.columns[domain.ColumnTodo]...),
		Doing: append([]domain.Card{}, c.columns[domain.ColumnDoing]...),
		Done:  append([]domain.Card{}, c.columns[domain.ColumnDone]...),
	}
}

// Divergent reports whether an optimistic move failed to persist since the
// last successful Load.
func (c *Controller) Divergent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.divergent
}

// AddCard inserts a new card at the end of the todo column and reloads the
// board. An empty or whitespace-only title is rejected before any
// persistence call.
func (c *Controller) AddCard(ctx context.Context, title, content string) (domain.Card, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Card{}, domain.ErrEmptyTitle
	}
	c.mu.RLock()
	position := len(c.columns[domain.ColumnTodo])
	c.mu.RUnlock()

	card, err := c.store.InsertCard(ctx, title, content, domain.ColumnTodo, position)
	if err != nil {
		return domain.Card{}, err
	}
	_ = c.Load(ctx)
	return card, nil
}

// EditCard updates title and content of the card with the given id, leaving
// column and position untouched, then reloads the board.
func (c *Controller) EditCard(ctx context.Context, id, title, content string) error {
	upd := domain.CardUpdate{Title: &title, Content: &content}
	if err := c.store.UpdateCard(ctx, id, upd); err != nil {
		return err
	}
	_ = c.Load(ctx)
	return nil
}

// DeleteCard removes the card with the given id and reloads the board.
func (c *Controller) DeleteCard(ctx context.Context, id string) error {
	if err := c.store.DeleteCard(ctx, id); err != nil {
		return err
	}
	_ = c.Load(ctx)
	return nil
}

// Move applies a drag-and-drop drop event: the card is spliced out of the
// source list, inserted into the destination list, and both lists are
// reindexed, the source one compressing the gap left by removal. Local state
// updates before the remote write. Only the moved card's column and position
// are persisted; displaced siblings are reconciled by the next full Load.
// A failed write leaves the controller divergent until then.
func (c *Controller) Move(ctx context.Context, req domain.MoveRequest) error {
	if !req.From.Column.Valid() || !req.To.Column.Valid() || req.To.Index < 0 {
		return domain.ErrInvalidMove
	}

	c.mu.Lock()
	src := c.columns[req.From.Column]
	if req.From.Index < 0 || req.From.Index >= len(src) {
		c.mu.Unlock()
		return domain.ErrInvalidMove
	}
	moved := src[req.From.Index]
	if req.ID != "" && moved.ID != req.ID {
		c.mu.Unlock()
		return domain.ErrStaleMove
	}

	remaining := make([]domain.Card, 0, len(src)-1)
	remaining = append(remaining, src[:req.From.Index]...)
	remaining = append(remaining, src[req.From.Index+1:]...)

	var dest []domain.Card
	if req.From.Column == req.To.Column {
		dest = remaining
	} else {
		dest = append([]domain.Card{}, c.columns[req.To.Column]...)
	}
	idx := req.To.Index
	if idx > len(dest) {
		idx = len(dest)
	}
	inserted := make([]domain.Card, 0, len(dest)+1)
	inserted = append(inserted, dest[:idx]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, dest[idx:]...)

	if req.From.Column == req.To.Column {
		c.columns[req.To.Column] = domain.Reindex(inserted, req.To.Column)
	} else {
		c.columns[req.From.Column] = domain.Reindex(remaining, req.From.Column)
		c.columns[req.To.Column] = domain.Reindex(inserted, req.To.Column)
	}
	c.mu.Unlock()

	column := req.To.Column
	upd := domain.CardUpdate{Column: &column, Position: &idx}
	if err := c.store.UpdateCard(ctx, moved.ID, upd); err != nil {
		c.mu.Lock()
		c.divergent = true
		c.mu.Unlock()
		c.log.WithError(err).WithField("card", moved.ID).Error("move write failed, local state diverged until next load")
		return err
	}
	return nil
}
