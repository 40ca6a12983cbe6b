package postgres

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/kanban/domain"
)

// jsonObject rejects payloads that are not JSON objects; the documents
// table merges with the jsonb || operator which needs objects on both sides.
func jsonObject(data json.RawMessage) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, domain.ErrInvalidPayload
	}
	return data, nil
}

func mapNotFound(err error, collection, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DocumentNotFound(collection, id)
	}
	return err
}
