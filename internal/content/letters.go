package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidLetter is returned for audio requests outside a-z.
var ErrInvalidLetter = errors.New("invalid letter")

// Letter describes one alphabet entry with its pronunciation audio URL.
type Letter struct {
	Letter   string `json:"letter"`
	AudioURL string `json:"audio_url"`
}

// Letters returns the synthesized A-Z list. The list is not read from a
// data file: the alphabet does not change, only the audio assets do.
func Letters() []Letter {
	letters := make([]Letter, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		letters = append(letters, Letter{
			Letter:   string(c),
			AudioURL: fmt.Sprintf("/static/audio/letters/%c.mp3", c+'a'-'A'),
		})
	}
	return letters
}

// LetterAudioPath validates the letter and returns the path to its
// pronunciation file under audioDir. Returns ErrInvalidLetter for anything
// that is not a single ASCII letter and ErrNotFound when the asset is
// missing on disk.
func LetterAudioPath(audioDir, letter string) (string, error) {
	if len(letter) != 1 {
		return "", ErrInvalidLetter
	}
	c := letter[0]
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return "", ErrInvalidLetter
	}

	path := filepath.Join(audioDir, "letters", fmt.Sprintf("%c.mp3", c))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: audio for letter %c", ErrNotFound, c)
	}
	return path, nil
}
