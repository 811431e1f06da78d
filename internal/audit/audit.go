package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/paperpaper/catalog/internal/storage"
)

// Auditor keeps JSON snapshots (for example a full import report) next to
// the attachments, one object per snapshot.
type Auditor struct {
	store  storage.Client
	prefix string
}

func NewAuditor(store storage.Client, prefix string) *Auditor {
	if prefix == "" {
		prefix = "audit"
	}
	return &Auditor{store: store, prefix: prefix}
}

// SaveJSON stores data under a random UUID name and returns the storage key.
func (a *Auditor) SaveJSON(ctx context.Context, data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	key := path.Join(a.prefix, uuid.NewString()+".json")
	if err := a.store.Upload(ctx, key, bytes.NewReader(jsonData)); err != nil {
		return "", fmt.Errorf("failed to write audit snapshot: %w", err)
	}
	return key, nil
}
