// Package attachments manages the archived documents associated with a
// workshop request: scanned paperwork, photos, and internal drafts.
package attachments

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Type classifies an attachment. Internal drafts never reach client-facing
// output.
type Type string

const (
	TypeManualPaper     Type = "manual_paper"
	TypeScannedDocument Type = "scanned_document"
	TypePhoto           Type = "photo"
	TypeInternalDraft   Type = "internal_draft"
)

// Attachment is one archived document. The URL must resolve before PDF
// assembly; unresolvable URLs degrade to the placeholder image downstream.
type Attachment struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	URL  string `json:"url"`
}

// Internal reports whether the attachment is excluded from client-facing
// output.
func (a Attachment) Internal() bool {
	return a.Type == TypeInternalDraft
}

// ClientFacing filters out internal drafts, preserving insertion order.
func ClientFacing(list []Attachment) []Attachment {
	out := make([]Attachment, 0, len(list))
	for _, a := range list {
		if !a.Internal() {
			out = append(out, a)
		}
	}
	return out
}

// ObjectStore is the storage collaborator: a black box that stores blobs
// under public URLs and deletes them again.
type ObjectStore interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Archive ties one request's attachment list to its backing object storage.
// Ordering is insertion order; duplicates are allowed. Safe for concurrent
// use; one request's uploads serialize so the list and the store stay
// consistent.
type Archive struct {
	store ObjectStore
	mu    sync.Mutex
	items []Attachment
}

func NewArchive(store ObjectStore) *Archive {
	return &Archive{store: store}
}

// Items returns the attachments in insertion order.
func (ar *Archive) Items() []Attachment {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	out := make([]Attachment, len(ar.items))
	copy(out, ar.items)
	return out
}

// Add uploads the blob and appends the resulting attachment to the list.
func (ar *Archive) Add(ctx context.Context, name string, typ Type, data []byte, contentType string) (Attachment, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	url, err := ar.store.Upload(ctx, name, data, contentType)
	if err != nil {
		return Attachment{}, fmt.Errorf("upload attachment %s: %w", name, err)
	}

	att := Attachment{Name: name, Type: typ, URL: url}
	ar.items = append(ar.items, att)
	slog.Info("Attachment archived", "name", name, "type", typ)
	return att, nil
}

// Delete removes both the storage object and the list entry. Later PDF
// assembly no longer sees the attachment.
func (ar *Archive) Delete(ctx context.Context, name string) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	for i, a := range ar.items {
		if a.Name != name {
			continue
		}
		if err := ar.store.Delete(ctx, a.URL); err != nil {
			return fmt.Errorf("delete attachment object %s: %w", name, err)
		}
		ar.items = append(ar.items[:i], ar.items[i+1:]...)
		slog.Info("Attachment deleted", "name", name)
		return nil
	}
	return fmt.Errorf("attachment %s not found", name)
}
