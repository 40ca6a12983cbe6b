package transport

import "encoding/json"

// ActionRequest is the {type, payload} envelope accepted by the action
// endpoints.
type ActionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ActiveBoardRequest struct {
	ID string `json:"id"`
}
