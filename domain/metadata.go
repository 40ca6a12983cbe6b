package domain

import "time"

// DefaultBoardColor is used when a board is created without a color.
const DefaultBoardColor = "#3B82F6"

// CompletionRecord is a denormalized snapshot taken when a card enters a
// done column. It outlives the card.
type CompletionRecord struct {
	CardID        string    `json:"cardId"`
	CardTitle     string    `json:"cardTitle"`
	BoardID       string    `json:"boardId"`
	AssigneeID    string    `json:"assigneeId,omitempty"`
	Priority      Priority  `json:"priority,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
	EstimateHours *float64  `json:"estimateHours,omitempty"`
}

// BoardMetadata shadows a Board with the same id. Listing and switching
// boards only needs this record.
type BoardMetadata struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Color             string             `json:"color"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	CompletionHistory []CompletionRecord `json:"completionHistory"`
}

// MetadataFor derives a metadata record for a board that has none.
func MetadataFor(b Board) BoardMetadata {
	return BoardMetadata{
		ID:                b.ID,
		Name:              b.Title,
		Description:       b.Description,
		Color:             DefaultBoardColor,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		CompletionHistory: []CompletionRecord{},
	}
}

// Clone returns a deep copy of the metadata record.
func (m BoardMetadata) Clone() BoardMetadata {
	out := m
	if m.CompletionHistory != nil {
		out.CompletionHistory = make([]CompletionRecord, len(m.CompletionHistory))
		copy(out.CompletionHistory, m.CompletionHistory)
	}
	return out
}

// HasCompletion reports whether a record for (cardID, at) already exists.
func (m *BoardMetadata) HasCompletion(cardID string, at time.Time) bool {
	for _, rec := range m.CompletionHistory {
		if rec.CardID == cardID && rec.CompletedAt.Equal(at) {
			return true
		}
	}
	return false
}

// Normalize fills defaults for a record restored from storage.
func (m *BoardMetadata) Normalize() {
	if m == nil {
		return
	}
	if m.Color == "" {
		m.Color = DefaultBoardColor
	}
	if m.CompletionHistory == nil {
		m.CompletionHistory = []CompletionRecord{}
	}
}
