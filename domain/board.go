package domain

import (
	"strings"
	"time"
)

// Priority ranks a card's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ColumnRole marks the workflow stage a column represents.
type ColumnRole string

const (
	RoleTodo       ColumnRole = "todo"
	RoleInProgress ColumnRole = "in_progress"
	RoleDone       ColumnRole = "done"
	RoleCustom     ColumnRole = "custom"
)

// Comment is an append-only note attached to a card.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category groups cards on a board by color-coded theme.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Card is a single work item. ColumnID is authoritative for membership.
type Card struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	AssigneeID    string     `json:"assigneeId,omitempty"`
	Priority      Priority   `json:"priority"`
	Labels        []string   `json:"labels"`
	CategoryID    string     `json:"categoryId,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Comments      []Comment  `json:"comments"`
	ColumnID      string     `json:"columnId"`
	Order         int        `json:"order"`
	Archived      bool       `json:"archived,omitempty"`
	ArchivedAt    *time.Time `json:"archivedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	EstimateHours *float64   `json:"estimateHours,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	out.Labels = cloneStrings(c.Labels)
	out.Dependencies = cloneStrings(c.Dependencies)
	if c.Comments != nil {
		out.Comments = make([]Comment, len(c.Comments))
		copy(out.Comments, c.Comments)
	}
	out.StartDate = cloneTime(c.StartDate)
	out.DueDate = cloneTime(c.DueDate)
	out.ArchivedAt = cloneTime(c.ArchivedAt)
	out.CompletedAt = cloneTime(c.CompletedAt)
	if c.EstimateHours != nil {
		v := *c.EstimateHours
		out.EstimateHours = &v
	}
	return out
}

// IsCompleted reports whether the card carries a completion timestamp.
func (c *Card) IsCompleted() bool {
	return c != nil && c.CompletedAt != nil
}

// Column is an ordered bucket of cards. Order sets left-to-right position
// and need not be contiguous.
type Column struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Order int        `json:"order"`
	Role  ColumnRole `json:"role,omitempty"`
	Cards []Card     `json:"cards"`
}

// EffectiveRole resolves the column's role, falling back to its title when
// no explicit role is set.
func (c *Column) EffectiveRole() ColumnRole {
	if c == nil {
		return RoleCustom
	}
	if c.Role != "" {
		return c.Role
	}
	title := strings.ToLower(c.Title)
	switch {
	case strings.Contains(title, "done"):
		return RoleDone
	case strings.Contains(title, "progress"):
		return RoleInProgress
	default:
		return RoleCustom
	}
}

func (c *Column) IsDone() bool       { return c.EffectiveRole() == RoleDone }
func (c *Column) IsInProgress() bool { return c.EffectiveRole() == RoleInProgress }

// Clone returns a deep copy of the column and its cards.
func (c Column) Clone() Column {
	out := c
	if c.Cards != nil {
		out.Cards = make([]Card, len(c.Cards))
		for i, card := range c.Cards {
			out.Cards[i] = card.Clone()
		}
	}
	return out
}

// Board is the unit of persistence and the unit a client views.
type Board struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Columns     []Column   `json:"columns"`
	Members     []User     `json:"members"`
	Categories  []Category `json:"categories"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := b
	if b.Columns != nil {
		out.Columns = make([]Column, len(b.Columns))
		for i, col := range b.Columns {
			out.Columns[i] = col.Clone()
		}
	}
	if b.Members != nil {
		out.Members = make([]User, len(b.Members))
		copy(out.Members, b.Members)
	}
	if b.Categories != nil {
		out.Categories = make([]Category, len(b.Categories))
		copy(out.Categories, b.Categories)
	}
	return out
}

// Cards flattens every card on the board in column order.
func (b *Board) Cards() []Card {
	if b == nil {
		return nil
	}
	var cards []Card
	for _, col := range b.Columns {
		cards = append(cards, col.Cards...)
	}
	return cards
}

// ColumnByID returns the index of the column with the given id, or -1.
func (b *Board) ColumnByID(id string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCard returns the column and card indexes holding the card, or -1, -1.
func (b *Board) FindCard(id string) (int, int) {
	for ci := range b.Columns {
		for ki := range b.Columns[ci].Cards {
			if b.Columns[ci].Cards[ki].ID == id {
				return ci, ki
			}
		}
	}
	return -1, -1
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr is a small helper for optional timestamps.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// DefaultCategoryColor is applied to categories restored without a color.
const DefaultCategoryColor = "#3B82F6"

// Normalize fills the defaults a board restored from storage may lack:
// titles, priorities, nil collections and card column back-references.
func (b *Board) Normalize() {
	if b == nil {
		return
	}
	if b.Title == "" {
		b.Title = "Untitled"
	}
	if b.Columns == nil {
		b.Columns = []Column{}
	}
	if b.Members == nil {
		b.Members = []User{}
	}
	if b.Categories == nil {
		b.Categories = []Category{}
	}
	for i := range b.Categories {
		if b.Categories[i].Name == "" {
			b.Categories[i].Name = "Untitled Category"
		}
		if b.Categories[i].Color == "" {
			b.Categories[i].Color = DefaultCategoryColor
		}
	}
	for ci := range b.Columns {
		col := &b.Columns[ci]
		if col.Title == "" {
			col.Title = "Untitled Column"
		}
		if col.Cards == nil {
			col.Cards = []Card{}
		}
		for ki := range col.Cards {
			card := &col.Cards[ki]
			if card.Title == "" {
				card.Title = "Untitled Card"
			}
			if !card.Priority.Valid() {
				card.Priority = PriorityMedium
			}
			if card.Labels == nil {
				card.Labels = []string{}
			}
			if card.Comments == nil {
				card.Comments = []Comment{}
			}
			if card.ColumnID == "" {
				card.ColumnID = col.ID
			}
		}
	}
}
