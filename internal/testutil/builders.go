package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/fastygo/kanban/domain"
)

// Epoch is the reference instant fixtures are built around.
var Epoch = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

// Clock is a settable clock for reducer environments.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sequence returns an id generator yielding prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// CardBuilder provides fluent API for creating test cards.
type CardBuilder struct {
	card domain.Card
}

func NewCard(id string) *CardBuilder {
	return &CardBuilder{
		card: domain.Card{
			ID:        id,
			Title:     "Card " + id,
			Priority:  domain.PriorityMedium,
			Labels:    []string{},
			Comments:  []domain.Comment{},
			CreatedAt: Epoch,
			UpdatedAt: Epoch,
		},
	}
}

func (b *CardBuilder) WithTitle(title string) *CardBuilder {
	b.card.Title = title
	return b
}

func (b *CardBuilder) WithDescription(d string) *CardBuilder {
	b.card.Description = d
	return b
}

func (b *CardBuilder) WithPriority(p domain.Priority) *CardBuilder {
	b.card.Priority = p
	return b
}

func (b *CardBuilder) WithAssignee(id string) *CardBuilder {
	b.card.AssigneeID = id
	return b
}

func (b *CardBuilder) WithLabels(labels ...string) *CardBuilder {
	b.card.Labels = labels
	return b
}

func (b *CardBuilder) WithCategory(id string) *CardBuilder {
	b.card.CategoryID = id
	return b
}

func (b *CardBuilder) WithStart(t time.Time) *CardBuilder {
	b.card.StartDate = domain.TimePtr(t)
	return b
}

func (b *CardBuilder) WithDue(t time.Time) *CardBuilder {
	b.card.DueDate = domain.TimePtr(t)
	return b
}

func (b *CardBuilder) WithCompleted(t time.Time) *CardBuilder {
	b.card.CompletedAt = domain.TimePtr(t)
	return b
}

func (b *CardBuilder) Archived(t time.Time) *CardBuilder {
	b.card.Archived = true
	b.card.ArchivedAt = domain.TimePtr(t)
	return b
}

func (b *CardBuilder) WithOrder(n int) *CardBuilder {
	b.card.Order = n
	return b
}

func (b *CardBuilder) Build() domain.Card {
	return b.card.Clone()
}

// BoardBuilder provides fluent API for creating test boards.
type BoardBuilder struct {
	board domain.Board
}

func NewBoard(id string) *BoardBuilder {
	return &BoardBuilder{
		board: domain.Board{
			ID:         id,
			Title:      "Board " + id,
			Columns:    []domain.Column{},
			Members:    domain.DefaultRoster(),
			Categories: []domain.Category{},
			CreatedAt:  Epoch,
			UpdatedAt:  Epoch,
		},
	}
}

func (b *BoardBuilder) WithTitle(title string) *BoardBuilder {
	b.board.Title = title
	return b
}

// WithColumn appends a column; cards get their ColumnID and Order set.
func (b *BoardBuilder) WithColumn(id, title string, role domain.ColumnRole, cards ...domain.Card) *BoardBuilder {
	col := domain.Column{
		ID:    id,
		Title: title,
		Order: len(b.board.Columns),
		Role:  role,
		Cards: []domain.Card{},
	}
	for i, c := range cards {
		c.ColumnID = id
		c.Order = i
		col.Cards = append(col.Cards, c)
	}
	b.board.Columns = append(b.board.Columns, col)
	return b
}

// WithDefaultColumns adds To Do / In Progress / Done columns with ids
// <board>-todo, <board>-progress and <board>-done.
func (b *BoardBuilder) WithDefaultColumns() *BoardBuilder {
	id := b.board.ID
	return b.
		WithColumn(id+"-todo", "To Do", domain.RoleTodo).
		WithColumn(id+"-progress", "In Progress", domain.RoleInProgress).
		WithColumn(id+"-done", "Done", domain.RoleDone)
}

func (b *BoardBuilder) WithCategory(id, name, color string) *BoardBuilder {
	b.board.Categories = append(b.board.Categories, domain.Category{ID: id, Name: name, Color: color, CreatedAt: Epoch})
	return b
}

func (b *BoardBuilder) Build() domain.Board {
	return b.board.Clone()
}

// MetadataFor returns a metadata record shadowing board.
func MetadataFor(board domain.Board) domain.BoardMetadata {
	return domain.MetadataFor(board)
}
