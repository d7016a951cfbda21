package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDataFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}
	return path
}

func TestSourceList(t *testing.T) {
	path := writeDataFile(t, "soundout.json",
		`[{"id": 1, "word": "cat"}, {"id": 2, "word": "dog"}]`)
	src := NewSource("sound-out", path, "words")

	items, err := src.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0]["word"] != "cat" {
		t.Errorf("items out of order: %+v", items)
	}
}

func TestSourceGet(t *testing.T) {
	path := writeDataFile(t, "quiz.json",
		`[{"id": 1, "options": ["two", "too"]}, {"id": 7, "options": ["see", "sea"]}]`)
	src := NewSource("homophone-quiz", path, "questions")

	item, err := src.Get(7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item["id"].(float64) != 7 {
		t.Errorf("wrong item returned: %+v", item)
	}

	_, err = src.Get(99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got: %v", err)
	}
}

func TestSourceMissingFile(t *testing.T) {
	src := NewSource("flashcards", filepath.Join(t.TempDir(), "nope.json"), "cards")

	if _, err := src.List(); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for missing file, got: %v", err)
	}
	if _, err := src.Get(1); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for missing file, got: %v", err)
	}
}

func TestSourceCorruptFile(t *testing.T) {
	path := writeDataFile(t, "bad.json", `{not valid json`)
	src := NewSource("mouth-moves", path, "exercises")

	if _, err := src.List(); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for corrupt file, got: %v", err)
	}
}

func TestLetters(t *testing.T) {
	letters := Letters()
	if len(letters) != 26 {
		t.Fatalf("expected 26 letters, got %d", len(letters))
	}
	if letters[0].Letter != "A" || letters[25].Letter != "Z" {
		t.Errorf("unexpected letter range: %s..%s", letters[0].Letter, letters[25].Letter)
	}
	if letters[0].AudioURL != "/static/audio/letters/a.mp3" {
		t.Errorf("unexpected audio URL: %s", letters[0].AudioURL)
	}
}

func TestLetterAudioPath(t *testing.T) {
	audioDir := t.TempDir()
	lettersDir := filepath.Join(audioDir, "letters")
	if err := os.MkdirAll(lettersDir, 0755); err != nil {
		t.Fatalf("failed to create letters dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(lettersDir, "a.mp3"), []byte("mp3"), 0644); err != nil {
		t.Fatalf("failed to write audio file: %v", err)
	}

	// Uppercase input maps to the lowercase asset
	path, err := LetterAudioPath(audioDir, "A")
	if err != nil {
		t.Fatalf("LetterAudioPath failed: %v", err)
	}
	if filepath.Base(path) != "a.mp3" {
		t.Errorf("unexpected path: %s", path)
	}

	if _, err := LetterAudioPath(audioDir, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing asset, got: %v", err)
	}

	for _, bad := range []string{"", "ab", "1", "!"} {
		if _, err := LetterAudioPath(audioDir, bad); !errors.Is(err, ErrInvalidLetter) {
			t.Errorf("expected ErrInvalidLetter for %q, got: %v", bad, err)
		}
	}
}

func TestAchievementsDegrade(t *testing.T) {
	// Missing file serves the default payload
	cfg := Achievements(filepath.Join(t.TempDir(), "nope.json"))
	if cfg["xpPerLevel"] != 500 {
		t.Errorf("expected default xpPerLevel, got: %v", cfg["xpPerLevel"])
	}

	// Corrupt file too
	path := writeDataFile(t, "achievements.json", `{broken`)
	cfg = Achievements(path)
	if cfg["xpPerLevel"] != 500 {
		t.Errorf("expected default payload for corrupt file, got: %+v", cfg)
	}

	// Valid file is served as-is
	path = writeDataFile(t, "ok.json", `{"modules": {"flashcards": {"xp": 10}}, "xpPerLevel": 250}`)
	cfg = Achievements(path)
	if cfg["xpPerLevel"].(float64) != 250 {
		t.Errorf("expected file payload, got: %+v", cfg)
	}
}
