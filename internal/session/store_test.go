package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipstudio/internal/media"
	"clipstudio/internal/session"
	"clipstudio/internal/testsupport"
)

func TestStoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if sess, err := store.Load(ctx); err != nil || sess != nil {
		t.Fatalf("Load on empty store = %+v, %v", sess, err)
	}

	sess := session.New(2)
	sess.SetVideo(media.Video{ID: "vid-1", Filename: "match.mp4", Status: media.VideoReady, DurationMS: 180_000})
	sess.SetClips([]media.Clip{{ID: "clip-1", VideoID: "vid-1", StartMS: 0, EndMS: 30_000, Status: media.ClipDraft}})
	sess.SetCaption("Top play")
	at := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	sess.SetScheduleAt(at)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil || loaded.ID != sess.ID {
		t.Fatalf("loaded session = %+v", loaded)
	}
	if loaded.Video == nil || loaded.Video.ID != "vid-1" {
		t.Fatalf("video lost: %+v", loaded.Video)
	}
	if clip, ok := loaded.SelectedClip(); !ok || clip.ID != "clip-1" {
		t.Fatalf("selection lost: %+v, %v", clip, ok)
	}
	if loaded.Publish.Caption != "Top play" || loaded.Publish.ScheduleAt == nil || !loaded.Publish.ScheduleAt.Equal(at) {
		t.Fatalf("publish settings lost: %+v", loaded.Publish)
	}
	if loaded.Quota != 2 {
		t.Fatalf("quota lost: %d", loaded.Quota)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	sess := session.New(2)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sess.SetCaption("v2")
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Publish.Caption != "v2" {
		t.Fatalf("caption = %q, want v2", loaded.Publish.Caption)
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	sess := session.New(2)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if loaded, err := store.Load(ctx); err != nil || loaded != nil {
		t.Fatalf("session survived delete: %+v, %v", loaded, err)
	}

	if err := store.Save(ctx, session.New(2)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if loaded, err := store.Load(ctx); err != nil || loaded != nil {
		t.Fatalf("session survived clear: %+v, %v", loaded, err)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	sess := session.New(2)
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	loaded, err := reopened.Load(context.Background())
	if err != nil || loaded == nil || loaded.ID != sess.ID {
		t.Fatalf("session lost across reopen: %+v, %v", loaded, err)
	}
}

func TestLockSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first := session.NewLock(cfg)
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(func() { _ = first.Release() })

	second := session.NewLock(cfg)
	if err := second.Acquire(); !errors.Is(err, session.ErrLocked) {
		t.Fatalf("second Acquire = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	_ = second.Release()
}
