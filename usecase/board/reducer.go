package board

import (
	"sort"
	"strings"

	"github.com/fastygo/kanban/domain"
)

var defaultColumns = []struct {
	title string
	role  domain.ColumnRole
}{
	{"To Do", domain.RoleTodo},
	{"In Progress", domain.RoleInProgress},
	{"Done", domain.RoleDone},
}

// Reduce applies action to s and returns the next state together with the
// domain events the transition produced. s is never mutated. Actions that
// reference a missing board, column, card or category leave the state
// unchanged.
func Reduce(s State, action Action, env Env) Result {
	env = env.withDefaults()
	r := reducer{env: env}

	switch a := action.(type) {
	case SetBoards:
		return r.setBoards(s, a)
	case SetActiveBoard:
		return r.setActiveBoard(s, a)
	case CreateBoard:
		return r.createBoard(s, a)
	case UpdateBoardMetadata:
		return r.updateBoardMetadata(s, a)
	case DeleteBoard:
		return r.deleteBoard(s, a)
	case AddCard:
		return r.addCard(s, a)
	case UpdateCard:
		return r.updateCard(s, a)
	case DeleteCard:
		return r.deleteCard(s, a)
	case ArchiveCard:
		return r.setArchived(s, a.ID, true)
	case RestoreCard:
		return r.setArchived(s, a.ID, false)
	case MoveCard:
		return r.moveCard(s, a)
	case AddColumn:
		return r.addColumn(s, a)
	case UpdateColumn:
		return r.updateColumn(s, a)
	case DeleteColumn:
		return r.deleteColumn(s, a)
	case AddCategory:
		return r.addCategory(s, a)
	case UpdateCategory:
		return r.updateCategory(s, a)
	case DeleteCategory:
		return r.deleteCategory(s, a)
	case AddComment:
		return r.addComment(s, a)
	case SetCurrentUser:
		return r.setCurrentUser(s, a)
	}
	return Result{State: s}
}

type reducer struct {
	env Env
}

// editActive clones the active board, hands it to fn, and if fn reports a
// change stores the clone back into a copied board slice.
func (r reducer) editActive(s State, fn func(b *domain.Board) bool) Result {
	idx := s.boardIndex(s.ActiveBoardID)
	if idx < 0 {
		return Result{State: s}
	}
	b := s.Boards[idx].Clone()
	if !fn(&b) {
		return Result{State: s}
	}
	b.UpdatedAt = r.env.Now()
	next := s
	next.Boards = replaceAt(s.Boards, idx, b)
	next.Revision++
	return Result{State: next}
}

// setBoards replaces the collections. Boards and metadata are paired by id:
// orphan metadata is dropped and a board without metadata gets a record
// derived from it. An active id that is no longer loaded falls back to the
// first metadata entry.
func (r reducer) setBoards(s State, a SetBoards) Result {
	boards := make([]domain.Board, 0, len(a.Boards))
	seen := make(map[string]bool, len(a.Boards))
	for _, b := range a.Boards {
		if b.ID == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		boards = append(boards, b)
	}

	metadata := make([]domain.BoardMetadata, 0, len(boards))
	paired := make(map[string]bool, len(boards))
	for _, m := range a.Metadata {
		if !seen[m.ID] || paired[m.ID] {
			continue
		}
		paired[m.ID] = true
		metadata = append(metadata, m)
	}
	for _, b := range boards {
		if !paired[b.ID] {
			metadata = append(metadata, domain.MetadataFor(b))
		}
	}

	next := s
	next.Boards = boards
	next.Metadata = metadata
	if !next.HasBoard(next.ActiveBoardID) {
		next.ActiveBoardID = ""
		if len(metadata) > 0 {
			next.ActiveBoardID = metadata[0].ID
		}
	}
	next.Revision++
	return Result{State: next}
}

func (r reducer) setActiveBoard(s State, a SetActiveBoard) Result {
	if a.ID == s.ActiveBoardID || !s.HasBoard(a.ID) {
		return Result{State: s}
	}
	next := s
	next.ActiveBoardID = a.ID
	return Result{State: next}
}

func (r reducer) createBoard(s State, a CreateBoard) Result {
	now := r.env.Now()
	id := r.env.NewID()

	columns := make([]domain.Column, 0, len(defaultColumns))
	for i, def := range defaultColumns {
		columns = append(columns, domain.Column{
			ID:    r.env.NewID(),
			Title: def.title,
			Order: i,
			Role:  def.role,
			Cards: []domain.Card{},
		})
	}

	color := a.Color
	if color == "" {
		color = domain.DefaultBoardColor
	}

	b := domain.Board{
		ID:          id,
		Title:       a.Name,
		Description: a.Description,
		Columns:     columns,
		Members:     append([]domain.User{}, s.Users...),
		Categories:  []domain.Category{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	meta := domain.BoardMetadata{
		ID:                id,
		Name:              a.Name,
		Description:       a.Description,
		Color:             color,
		CreatedAt:         now,
		UpdatedAt:         now,
		CompletionHistory: []domain.CompletionRecord{},
	}

	next := s
	next.Boards = append(append([]domain.Board{}, s.Boards...), b)
	next.Metadata = append(append([]domain.BoardMetadata{}, s.Metadata...), meta)
	next.ActiveBoardID = id
	next.Revision++
	return Result{State: next}
}

func (r reducer) updateBoardMetadata(s State, a UpdateBoardMetadata) Result {
	bi := s.boardIndex(a.ID)
	mi := s.metadataIndex(a.ID)
	if bi < 0 && mi < 0 {
		return Result{State: s}
	}
	now := r.env.Now()
	next := s
	if bi >= 0 {
		b := s.Boards[bi].Clone()
		b.Title = a.Name
		b.Description = a.Description
		b.UpdatedAt = now
		next.Boards = replaceAt(s.Boards, bi, b)
	}
	if mi >= 0 {
		m := s.Metadata[mi].Clone()
		m.Name = a.Name
		m.Description = a.Description
		if a.Color != "" {
			m.Color = a.Color
		}
		m.UpdatedAt = now
		next.Metadata = replaceAt(s.Metadata, mi, m)
	}
	next.Revision++
	return Result{State: next}
}

func (r reducer) deleteBoard(s State, a DeleteBoard) Result {
	bi := s.boardIndex(a.ID)
	mi := s.metadataIndex(a.ID)
	if bi < 0 && mi < 0 {
		return Result{State: s}
	}
	next := s
	next.Boards = removeWhere(s.Boards, func(b domain.Board) bool { return b.ID == a.ID })
	next.Metadata = removeWhere(s.Metadata, func(m domain.BoardMetadata) bool { return m.ID == a.ID })
	if s.ActiveBoardID == a.ID {
		next.ActiveBoardID = ""
		if len(next.Boards) > 0 {
			next.ActiveBoardID = next.Boards[0].ID
		}
	}
	next.Revision++
	return Result{State: next}
}

func (r reducer) addCard(s State, a AddCard) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		ci := b.ColumnByID(a.ColumnID)
		if ci < 0 {
			return false
		}
		now := r.env.Now()
		priority := a.Priority
		if !priority.Valid() {
			priority = domain.PriorityMedium
		}
		labels := append([]string{}, a.Labels...)
		card := domain.Card{
			ID:            r.env.NewID(),
			Title:         a.Title,
			Description:   a.Description,
			AssigneeID:    a.AssigneeID,
			Priority:      priority,
			Labels:        labels,
			CategoryID:    a.CategoryID,
			StartDate:     a.StartDate,
			DueDate:       a.DueDate,
			CreatedAt:     now,
			UpdatedAt:     now,
			Comments:      []domain.Comment{},
			ColumnID:      a.ColumnID,
			Order:         len(b.Columns[ci].Cards),
			EstimateHours: a.EstimateHours,
			Dependencies:  a.Dependencies,
		}
		b.Columns[ci].Cards = append(b.Columns[ci].Cards, card.Clone())
		return true
	})
}

func (r reducer) updateCard(s State, a UpdateCard) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		ci, ki := b.FindCard(a.ID)
		if ci < 0 {
			return false
		}
		card := &b.Columns[ci].Cards[ki]
		applyPatch(card, a)
		card.UpdatedAt = r.env.Now()
		return true
	})
}

func applyPatch(card *domain.Card, p UpdateCard) {
	if p.Title != nil {
		card.Title = *p.Title
	}
	if p.Description != nil {
		card.Description = *p.Description
	}
	if p.AssigneeID != nil {
		card.AssigneeID = *p.AssigneeID
	}
	if p.Priority != nil && p.Priority.Valid() {
		card.Priority = *p.Priority
	}
	if p.Labels != nil {
		card.Labels = append([]string{}, (*p.Labels)...)
	}
	if p.CategoryID != nil {
		card.CategoryID = *p.CategoryID
	}
	if p.StartDate != nil {
		card.StartDate = domain.TimePtr(*p.StartDate)
	}
	if p.DueDate != nil {
		card.DueDate = domain.TimePtr(*p.DueDate)
	}
	if p.EstimateHours != nil {
		v := *p.EstimateHours
		card.EstimateHours = &v
	}
	if p.Dependencies != nil {
		card.Dependencies = append([]string{}, (*p.Dependencies)...)
	}
	if p.Comments != nil {
		card.Comments = append([]domain.Comment{}, (*p.Comments)...)
	}

	if p.ClearAssignee {
		card.AssigneeID = ""
	}
	if p.ClearCategory {
		card.CategoryID = ""
	}
	if p.ClearStartDate {
		card.StartDate = nil
	}
	if p.ClearDueDate {
		card.DueDate = nil
	}
	if p.ClearEstimate {
		card.EstimateHours = nil
	}
}

func (r reducer) deleteCard(s State, a DeleteCard) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		ci, ki := b.FindCard(a.ID)
		if ci < 0 {
			return false
		}
		cards := b.Columns[ci].Cards
		b.Columns[ci].Cards = append(cards[:ki:ki], cards[ki+1:]...)
		return true
	})
}

func (r reducer) setArchived(s State, id string, archived bool) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		ci, ki := b.FindCard(id)
		if ci < 0 {
			return false
		}
		card := &b.Columns[ci].Cards[ki]
		now := r.env.Now()
		card.Archived = archived
		if archived {
			card.ArchivedAt = domain.TimePtr(now)
		} else {
			card.ArchivedAt = nil
		}
		card.UpdatedAt = now
		return true
	})
}

func (r reducer) moveCard(s State, a MoveCard) Result {
	bi := s.boardIndex(s.ActiveBoardID)
	if bi < 0 {
		return Result{State: s}
	}
	src := &s.Boards[bi]
	si := src.ColumnByID(a.SourceColumnID)
	ti := src.ColumnByID(a.TargetColumnID)
	if si < 0 || ti < 0 {
		return Result{State: s}
	}
	ki := -1
	for i, c := range src.Columns[si].Cards {
		if c.ID == a.CardID {
			ki = i
			break
		}
	}
	if ki < 0 {
		return Result{State: s}
	}
	if si == ti && src.Columns[si].Cards[ki].Order == a.NewOrder {
		return Result{State: s}
	}

	now := r.env.Now()
	b := src.Clone()
	source := &b.Columns[si]
	target := &b.Columns[ti]

	card := source.Cards[ki]
	source.Cards = append(source.Cards[:ki:ki], source.Cards[ki+1:]...)
	card.ColumnID = target.ID
	card.Order = a.NewOrder
	card.UpdatedAt = now

	var (
		events     []domain.Event
		completion *domain.CompletionRecord
	)
	sourceDone := source.IsDone()
	targetDone := target.IsDone()
	switch {
	case si != ti && targetDone && !sourceDone:
		if card.CompletedAt == nil {
			card.CompletedAt = domain.TimePtr(now)
		}
		completion = &domain.CompletionRecord{
			CardID:        card.ID,
			CardTitle:     card.Title,
			BoardID:       b.ID,
			AssigneeID:    card.AssigneeID,
			Priority:      card.Priority,
			CompletedAt:   *card.CompletedAt,
			EstimateHours: card.EstimateHours,
		}
	case si != ti && sourceDone && !targetDone:
		card.CompletedAt = nil
	}
	if si != ti && target.IsInProgress() {
		events = append(events, domain.CardStarted{BoardID: b.ID, CardID: card.ID})
	}

	target.Cards = append(target.Cards, card)
	sort.SliceStable(target.Cards, func(i, j int) bool {
		return target.Cards[i].Order < target.Cards[j].Order
	})
	b.UpdatedAt = now

	next := s
	next.Boards = replaceAt(s.Boards, bi, b)

	if completion != nil {
		fresh := true
		if mi := s.metadataIndex(b.ID); mi >= 0 {
			if s.Metadata[mi].HasCompletion(completion.CardID, completion.CompletedAt) {
				fresh = false
			} else {
				m := s.Metadata[mi].Clone()
				m.CompletionHistory = append(m.CompletionHistory, *completion)
				m.UpdatedAt = now
				next.Metadata = replaceAt(s.Metadata, mi, m)
			}
		}
		if fresh {
			events = append(events, domain.CardCompleted{
				BoardID:     b.ID,
				CardID:      completion.CardID,
				Priority:    completion.Priority,
				CompletedAt: completion.CompletedAt,
			})
		}
	}

	next.Revision++
	return Result{State: next, Events: events}
}

func (r reducer) addColumn(s State, a AddColumn) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		order := 0
		for _, col := range b.Columns {
			if col.Order >= order {
				order = col.Order + 1
			}
		}
		b.Columns = append(b.Columns, domain.Column{
			ID:    r.env.NewID(),
			Title: a.Title,
			Order: order,
			Role:  a.Role,
			Cards: []domain.Card{},
		})
		return true
	})
}

func (r reducer) updateColumn(s State, a UpdateColumn) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		ci := b.ColumnByID(a.ID)
		if ci < 0 {
			return false
		}
		b.Columns[ci].Title = a.Title
		if a.Role != nil {
			b.Columns[ci].Role = *a.Role
		}
		return true
	})
}

func (r reducer) deleteColumn(s State, a DeleteColumn) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		if b.ColumnByID(a.ID) < 0 {
			return false
		}
		b.Columns = removeWhere(b.Columns, func(c domain.Column) bool { return c.ID == a.ID })
		return true
	})
}

func (r reducer) addCategory(s State, a AddCategory) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		b.Categories = append(b.Categories, domain.Category{
			ID:        r.env.NewID(),
			Name:      a.Name,
			Color:     a.Color,
			CreatedAt: r.env.Now(),
		})
		return true
	})
}

func (r reducer) updateCategory(s State, a UpdateCategory) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		for i := range b.Categories {
			if b.Categories[i].ID == a.ID {
				b.Categories[i].Name = a.Name
				b.Categories[i].Color = a.Color
				return true
			}
		}
		return false
	})
}

func (r reducer) deleteCategory(s State, a DeleteCategory) Result {
	return r.editActive(s, func(b *domain.Board) bool {
		found := false
		for _, c := range b.Categories {
			if c.ID == a.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		b.Categories = removeWhere(b.Categories, func(c domain.Category) bool { return c.ID == a.ID })
		for ci := range b.Columns {
			for ki := range b.Columns[ci].Cards {
				if b.Columns[ci].Cards[ki].CategoryID == a.ID {
					b.Columns[ci].Cards[ki].CategoryID = ""
				}
			}
		}
		return true
	})
}

func (r reducer) addComment(s State, a AddComment) Result {
	if strings.TrimSpace(a.Content) == "" {
		return Result{State: s}
	}
	return r.editActive(s, func(b *domain.Board) bool {
		ci, ki := b.FindCard(a.CardID)
		if ci < 0 {
			return false
		}
		now := r.env.Now()
		author := a.AuthorID
		if author == "" {
			author = s.CurrentUserID
		}
		card := &b.Columns[ci].Cards[ki]
		card.Comments = append(card.Comments, domain.Comment{
			ID:        r.env.NewID(),
			Content:   a.Content,
			AuthorID:  author,
			CreatedAt: now,
			UpdatedAt: now,
		})
		card.UpdatedAt = now
		return true
	})
}

func (r reducer) setCurrentUser(s State, a SetCurrentUser) Result {
	for _, u := range s.Users {
		if u.ID == a.ID {
			next := s
			next.CurrentUserID = a.ID
			return Result{State: next}
		}
	}
	return Result{State: s}
}

func replaceAt[T any](in []T, idx int, v T) []T {
	out := append([]T(nil), in...)
	out[idx] = v
	return out
}

func removeWhere[T any](in []T, drop func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
