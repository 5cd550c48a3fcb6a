package retention

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"narrated-video-pipeline/config"
)

func touch(t *testing.T, path string, age time.Duration, now time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	mt := now.Add(-age)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func TestSweepRemovesOnlyExpiredGeneratedFiles(t *testing.T) {
	now := time.Now()
	static := t.TempDir()
	audioDir := filepath.Join(static, "audio")
	imagesDir := filepath.Join(static, "images")
	for _, d := range []string{audioDir, imagesDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	oldAudio := filepath.Join(audioDir, "audio_old.mp3")
	newAudio := filepath.Join(audioDir, "audio_new.mp3")
	oldFinal := filepath.Join(static, "final_old.mp4")
	newFinal := filepath.Join(static, "final_new.mp4")
	catalogImage := filepath.Join(imagesDir, "1.jpeg")
	strayOld := filepath.Join(static, "notes.txt")

	touch(t, oldAudio, 48*time.Hour, now)
	touch(t, newAudio, time.Minute, now)
	touch(t, oldFinal, 25*time.Hour, now)
	touch(t, newFinal, time.Hour, now)
	touch(t, catalogImage, 1000*time.Hour, now)
	touch(t, strayOld, 1000*time.Hour, now)

	paths := config.PathsConfig{Static: static, Audio: audioDir, Output: static, Images: imagesDir}
	s := New(config.RetentionConfig{TTL: 24 * time.Hour, Interval: time.Hour}, DefaultTargets(paths)...)

	if got := s.Sweep(now); got != 2 {
		t.Errorf("removed %d, want 2", got)
	}
	for p, want := range map[string]bool{
		oldAudio:     false,
		oldFinal:     false,
		newAudio:     true,
		newFinal:     true,
		catalogImage: true,
		strayOld:     true,
	} {
		if exists(p) != want {
			t.Errorf("%s exists = %v, want %v", filepath.Base(p), !want, want)
		}
	}
}

func TestSweepMissingDirectory(t *testing.T) {
	s := New(config.RetentionConfig{TTL: time.Hour}, Target{Dir: filepath.Join(t.TempDir(), "gone"), Prefixes: []string{"audio_"}})
	if got := s.Sweep(time.Now()); got != 0 {
		t.Errorf("removed %d", got)
	}
}

func TestDefaultTargetsSharedDirectory(t *testing.T) {
	got := DefaultTargets(config.PathsConfig{Audio: "static/", Output: "static"})
	if len(got) != 1 || len(got[0].Prefixes) != 2 {
		t.Errorf("targets = %+v", got)
	}
}

func TestStartSweepsImmediatelyAndStops(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "final_x.mp4")
	touch(t, p, 2*time.Hour, time.Now())

	s := New(config.RetentionConfig{TTL: time.Hour, Interval: time.Hour}, Target{Dir: dir, Prefixes: []string{"final_"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for exists(p) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if exists(p) {
		t.Error("expired file survived the initial sweep")
	}
	s.Stop()
	s.Stop()
}
