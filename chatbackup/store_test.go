package chatbackup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docload/chatconv"
	"github.com/hazyhaar/docload/dbopen"
	"github.com/hazyhaar/docload/idgen"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(dbopen.OpenMemory(t))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func testRecord(t *testing.T, gen idgen.Generator, title string, at time.Time) *chatconv.Record {
	t.Helper()
	conv := chatconv.NewConverter(
		chatconv.WithIDGenerator(gen),
		chatconv.WithClock(func() time.Time { return at }),
	)
	rec, err := conv.Convert(chatconv.LegacyExport{
		Title:          title,
		ConversationID: "conv-" + title,
		Messages: []chatconv.LegacyMessage{{
			MessageID:       "m1",
			IsCreatedByUser: true,
			Text:            "hello",
			CreatedAt:       "2024-01-01T00:00:00Z",
		}},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return rec
}

func TestInsertGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := testRecord(t, idgen.Sequence("b-"), "first", time.Unix(1700000000, 0))

	b, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.ID != rec.ID || b.UserID != rec.UserID || b.Title != "first" {
		t.Errorf("backup = %+v", b)
	}
	if b.CreatedAt != 1700000000 || b.UpdatedAt != 1700000000 {
		t.Errorf("timestamps = %d / %d", b.CreatedAt, b.UpdatedAt)
	}
	if b.Archived || b.Pinned || b.ShareID != nil || b.FolderID != nil {
		t.Errorf("flags = %+v", b)
	}
	if b.Meta == nil || len(b.Meta) != 0 {
		t.Errorf("meta = %v, want empty map", b.Meta)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Chat.ID != "conv-first" || len(got.Chat.Messages) != 1 {
		t.Errorf("chat = %+v", got.Chat)
	}
	if got.Chat.History.CurrentID == nil || *got.Chat.History.CurrentID != "m1" {
		t.Errorf("currentId = %v", got.Chat.History.CurrentID)
	}
	if got.Chat.History.Messages["m1"].Role != chatconv.RoleUser {
		t.Errorf("history = %+v", got.Chat.History.Messages)
	}
}

func TestGet_Missing(t *testing.T) {
	s := testStore(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestInsert_Conflict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := testRecord(t, idgen.Sequence("dup-"), "a", time.Now())

	if _, err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := s.Insert(ctx, rec)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second insert: got %v, want ErrConflict", err)
	}
}

func TestShareID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	gen := idgen.Sequence("s-")
	a, _ := s.Insert(ctx, testRecord(t, gen, "a", time.Now()))
	b, _ := s.Insert(ctx, testRecord(t, gen, "b", time.Now()))
	if a == nil || b == nil {
		t.Fatal("insert failed")
	}

	if err := s.SetShareID(ctx, a.ID, "public-1"); err != nil {
		t.Fatalf("share: %v", err)
	}
	got, err := s.GetByShareID(ctx, "public-1")
	if err != nil || got == nil || got.ID != a.ID {
		t.Fatalf("GetByShareID = %+v, %v", got, err)
	}

	if err := s.SetShareID(ctx, b.ID, "public-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate share id: got %v, want ErrConflict", err)
	}
	if err := s.SetShareID(ctx, "missing", "public-2"); err == nil {
		t.Fatal("sharing a missing backup should fail")
	}
}

func TestListByUser(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := testRecord(t, idgen.Sequence("old-"), "older", time.Unix(100, 0))
	newer := testRecord(t, idgen.Sequence("new-"), "newer", time.Unix(200, 0))
	newer.UserID = older.UserID
	for _, rec := range []*chatconv.Record{older, newer} {
		if _, err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	list, err := s.ListByUser(ctx, older.UserID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "newer" || list[1].Title != "older" {
		t.Fatalf("list = %+v", list)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	rec := testRecord(t, idgen.UUIDv4(), "file", time.Now())
	if _, err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
