package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/annel0/soundsteps/internal/content"
)

// content-check проверяет статические JSON-файлы контента перед деплоем:
// что каждый файл читается, элементы имеют уникальные числовые id,
// и для каких букв отсутствуют аудио-файлы.

func main() {
	dataDir := flag.String("data", "data", "каталог с JSON-файлами контента")
	audioDir := flag.String("audio", "static/audio", "каталог с аудио-файлами")
	flag.Parse()

	sources := []struct {
		name string
		file string
	}{
		{"flashcards", "flashcards.json"},
		{"sound-out", "soundout.json"},
		{"mouth-moves", "mouth_moves.json"},
		{"homophone-quiz", "homophone_quiz.json"},
		{"games", "games.json"},
	}

	failed := false

	for _, s := range sources {
		src := content.NewSource(s.name, filepath.Join(*dataDir, s.file), s.name)
		items, err := src.List()
		if err != nil {
			fmt.Printf("❌ %-15s %v\n", s.name, err)
			failed = true
			continue
		}

		dupes := 0
		seen := make(map[int]bool)
		missing := 0
		for _, item := range items {
			id, ok := item["id"].(float64)
			if !ok {
				missing++
				continue
			}
			if seen[int(id)] {
				dupes++
			}
			seen[int(id)] = true
		}

		switch {
		case missing > 0:
			fmt.Printf("⚠️  %-15s %d элементов, %d без числового id\n", s.name, len(items), missing)
		case dupes > 0:
			fmt.Printf("⚠️  %-15s %d элементов, %d дубликатов id\n", s.name, len(items), dupes)
			failed = true
		default:
			fmt.Printf("✅ %-15s %d элементов\n", s.name, len(items))
		}
	}

	// Achievements не обязателен: сервер деградирует до значений по умолчанию
	achPath := filepath.Join(*dataDir, "achievements.json")
	if _, err := os.Stat(achPath); err != nil {
		fmt.Printf("⚠️  %-15s файл отсутствует, будут значения по умолчанию\n", "achievements")
	} else {
		fmt.Printf("✅ %-15s ok\n", "achievements")
	}

	// Проверяем аудио букв
	missingAudio := 0
	for c := 'a'; c <= 'z'; c++ {
		if _, err := content.LetterAudioPath(*audioDir, string(c)); err != nil {
			missingAudio++
		}
	}
	if missingAudio > 0 {
		fmt.Printf("⚠️  %-15s нет аудио для %d букв\n", "letters", missingAudio)
	} else {
		fmt.Printf("✅ %-15s аудио для всех 26 букв\n", "letters")
	}

	if failed {
		os.Exit(1)
	}
}
