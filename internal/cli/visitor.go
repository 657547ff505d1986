package cli

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lordkro/nullupload/internal/storage"
)

const visitorKey = "nullupload_visitor"

// visitorID возвращает идентификатор посетителя, создавая его при первом запуске.
func visitorID(ctx context.Context, kv storage.KeyValue) (string, error) {
	var id string
	err := kv.Update(ctx, visitorKey, func(old []byte, ok bool) ([]byte, error) {
		if ok {
			if parsed, err := uuid.ParseBytes(old); err == nil {
				id = parsed.String()
				return old, nil
			}
		}
		id = uuid.NewString()
		return []byte(id), nil
	})
	return id, err
}
