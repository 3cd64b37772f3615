package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/climbing-section/backoffice/internal/ports/out/blobstore"
)

func TestStore_PutGetDelete(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	if err := s.Put(ctx, "members/m1/p.png", "image/png", strings.NewReader("png-bytes"), 9); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	rc, obj, err := s.Get(ctx, "members/m1/p.png")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png-bytes" || obj.ContentType != "image/png" || obj.Size != 9 {
		t.Fatalf("Get()=%q %+v", b, obj)
	}

	if err := s.Delete(ctx, "members/m1/p.png"); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if _, _, err := s.Get(ctx, "members/m1/p.png"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("Get(deleted) err=%v, want ErrNotFound", err)
	}
	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete(missing) err=%v", err)
	}
}
