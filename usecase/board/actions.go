package board

import (
	"time"

	"github.com/fastygo/kanban/domain"
)

// Action is a board state transition request.
type Action interface {
	Type() string
}

const (
	TypeSetBoards           = "SET_BOARDS"
	TypeSetActiveBoard      = "SET_ACTIVE_BOARD"
	TypeCreateBoard         = "CREATE_BOARD"
	TypeUpdateBoardMetadata = "UPDATE_BOARD_METADATA"
	TypeDeleteBoard         = "DELETE_BOARD"
	TypeAddCard             = "ADD_CARD"
	TypeUpdateCard          = "UPDATE_CARD"
	TypeDeleteCard          = "DELETE_CARD"
	TypeArchiveCard         = "ARCHIVE_CARD"
	TypeRestoreCard         = "RESTORE_CARD"
	TypeMoveCard            = "MOVE_CARD"
	TypeAddColumn           = "ADD_COLUMN"
	TypeUpdateColumn        = "UPDATE_COLUMN"
	TypeDeleteColumn        = "DELETE_COLUMN"
	TypeAddCategory         = "ADD_CATEGORY"
	TypeUpdateCategory      = "UPDATE_CATEGORY"
	TypeDeleteCategory      = "DELETE_CATEGORY"
	TypeAddComment          = "ADD_COMMENT"
	TypeSetCurrentUser      = "SET_CURRENT_USER"
)

type SetBoards struct {
	Boards   []domain.Board         `json:"boards"`
	Metadata []domain.BoardMetadata `json:"metadata"`
}

type SetActiveBoard struct {
	ID string `json:"id"`
}

type CreateBoard struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type UpdateBoardMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type DeleteBoard struct {
	ID string `json:"id"`
}

// AddCard creates a card in ColumnID of the active board.
type AddCard struct {
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	AssigneeID    string          `json:"assigneeId,omitempty"`
	Priority      domain.Priority `json:"priority"`
	Labels        []string        `json:"labels"`
	CategoryID    string          `json:"categoryId,omitempty"`
	StartDate     *time.Time      `json:"startDate,omitempty"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	EstimateHours *float64        `json:"estimateHours,omitempty"`
	Dependencies  []string        `json:"dependencies,omitempty"`
	ColumnID      string          `json:"columnId"`
}

// UpdateCard merges the non-nil fields into the card with ID. Optional
// references and dates are removed with the Clear* flags. Column membership
// only changes through MoveCard.
type UpdateCard struct {
	ID            string            `json:"id"`
	Title         *string           `json:"title,omitempty"`
	Description   *string           `json:"description,omitempty"`
	AssigneeID    *string           `json:"assigneeId,omitempty"`
	Priority      *domain.Priority  `json:"priority,omitempty"`
	Labels        *[]string         `json:"labels,omitempty"`
	CategoryID    *string           `json:"categoryId,omitempty"`
	StartDate     *time.Time        `json:"startDate,omitempty"`
	DueDate       *time.Time        `json:"dueDate,omitempty"`
	EstimateHours *float64          `json:"estimateHours,omitempty"`
	Dependencies  *[]string         `json:"dependencies,omitempty"`
	Comments      *[]domain.Comment `json:"comments,omitempty"`

	ClearAssignee  bool `json:"clearAssignee,omitempty"`
	ClearCategory  bool `json:"clearCategory,omitempty"`
	ClearStartDate bool `json:"clearStartDate,omitempty"`
	ClearDueDate   bool `json:"clearDueDate,omitempty"`
	ClearEstimate  bool `json:"clearEstimate,omitempty"`
}

type DeleteCard struct {
	ID string `json:"id"`
}

type ArchiveCard struct {
	ID string `json:"id"`
}

type RestoreCard struct {
	ID string `json:"id"`
}

type MoveCard struct {
	CardID         string `json:"cardId"`
	SourceColumnID string `json:"sourceColumnId"`
	TargetColumnID string `json:"targetColumnId"`
	NewOrder       int    `json:"newOrder"`
}

type AddColumn struct {
	Title string            `json:"title"`
	Role  domain.ColumnRole `json:"role,omitempty"`
}

// UpdateColumn renames a column. A non-nil Role replaces the explicit role;
// an empty role reverts to title-based detection.
type UpdateColumn struct {
	ID    string             `json:"id"`
	Title string             `json:"title"`
	Role  *domain.ColumnRole `json:"role,omitempty"`
}

type DeleteColumn struct {
	ID string `json:"id"`
}

type AddCategory struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type DeleteCategory struct {
	ID string `json:"id"`
}

type AddComment struct {
	CardID   string `json:"cardId"`
	Content  string `json:"content"`
	AuthorID string `json:"authorId"`
}

type SetCurrentUser struct {
	ID string `json:"id"`
}

func (SetBoards) Type() string           { return TypeSetBoards }
func (SetActiveBoard) Type() string      { return TypeSetActiveBoard }
func (CreateBoard) Type() string         { return TypeCreateBoard }
func (UpdateBoardMetadata) Type() string { return TypeUpdateBoardMetadata }
func (DeleteBoard) Type() string         { return TypeDeleteBoard }
func (AddCard) Type() string             { return TypeAddCard }
func (UpdateCard) Type() string          { return TypeUpdateCard }
func (DeleteCard) Type() string          { return TypeDeleteCard }
func (ArchiveCard) Type() string         { return TypeArchiveCard }
func (RestoreCard) Type() string         { return TypeRestoreCard }
func (MoveCard) Type() string            { return TypeMoveCard }
func (AddColumn) Type() string           { return TypeAddColumn }
func (UpdateColumn) Type() string        { return TypeUpdateColumn }
func (DeleteColumn) Type() string        { return TypeDeleteColumn }
func (AddCategory) Type() string         { return TypeAddCategory }
func (UpdateCategory) Type() string      { return TypeUpdateCategory }
func (DeleteCategory) Type() string      { return TypeDeleteCategory }
func (AddComment) Type() string          { return TypeAddComment }
func (SetCurrentUser) Type() string      { return TypeSetCurrentUser }
