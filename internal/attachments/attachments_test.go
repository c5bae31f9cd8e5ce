package attachments

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type fakeStore struct {
	uploads  []string
	deletes  []string
	failNext bool
}

func (f *fakeStore) Upload(_ context.Context, name string, _ []byte, _ string) (string, error) {
	if f.failNext {
		return "", fmt.Errorf("storage down")
	}
	f.uploads = append(f.uploads, name)
	return "https://storage.example/" + name, nil
}

func (f *fakeStore) Delete(_ context.Context, url string) error {
	if f.failNext {
		return fmt.Errorf("storage down")
	}
	f.deletes = append(f.deletes, url)
	return nil
}

func TestClientFacingFiltersDraftsPreservingOrder(t *testing.T) {
	list := []Attachment{
		{Name: "a.jpg", Type: TypeScannedDocument},
		{Name: "draft.jpg", Type: TypeInternalDraft},
		{Name: "b.jpg", Type: TypeManualPaper},
		{Name: "c.jpg", Type: TypePhoto},
	}

	got := ClientFacing(list)
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d attachments, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, got[i].Name)
		}
	}
}

func TestArchiveAddAndDelete(t *testing.T) {
	store := &fakeStore{}
	ar := NewArchive(store)
	ctx := context.Background()

	if _, err := ar.Add(ctx, "scan1.jpg", TypeScannedDocument, []byte("x"), "image/jpeg"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := ar.Add(ctx, "scan2.jpg", TypeScannedDocument, []byte("y"), "image/jpeg"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := ar.Delete(ctx, "scan1.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	items := ar.Items()
	if len(items) != 1 || items[0].Name != "scan2.jpg" {
		t.Errorf("Expected only scan2.jpg left, got %v", items)
	}
	if len(store.deletes) != 1 || store.deletes[0] != "https://storage.example/scan1.jpg" {
		t.Errorf("Expected storage object deleted, got %v", store.deletes)
	}
}

func TestArchiveDeleteKeepsEntryOnStorageFailure(t *testing.T) {
	store := &fakeStore{}
	ar := NewArchive(store)
	ctx := context.Background()

	if _, err := ar.Add(ctx, "scan1.jpg", TypeScannedDocument, []byte("x"), "image/jpeg"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	store.failNext = true
	if err := ar.Delete(ctx, "scan1.jpg"); err == nil {
		t.Fatal("Expected delete error")
	}
	if len(ar.Items()) != 1 {
		t.Errorf("Expected entry kept when storage delete fails")
	}
}

func TestArchiveDeleteUnknown(t *testing.T) {
	ar := NewArchive(&fakeStore{})
	if err := ar.Delete(context.Background(), "nope.jpg"); err == nil {
		t.Error("Expected error for unknown attachment")
	}
}

func TestArchiveConcurrentAdds(t *testing.T) {
	ar := NewArchive(&fakeStore{})
	ctx := context.Background()

	const workers = 16
	const perWorker = 8

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				name := fmt.Sprintf("scan_%d_%d.jpg", w, i)
				if _, err := ar.Add(ctx, name, TypeScannedDocument, []byte("x"), "image/jpeg"); err != nil {
					t.Errorf("Add %s: %v", name, err)
				}
			}
		}(w)
	}
	wg.Wait()

	if got := len(ar.Items()); got != workers*perWorker {
		t.Errorf("Expected %d attachments, got %d", workers*perWorker, got)
	}
}

func TestArchiveAllowsDuplicates(t *testing.T) {
	ar := NewArchive(&fakeStore{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := ar.Add(ctx, "same.jpg", TypePhoto, []byte("x"), "image/jpeg"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if len(ar.Items()) != 2 {
		t.Errorf("Expected duplicates preserved, got %d", len(ar.Items()))
	}
}
