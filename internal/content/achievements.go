package content

import (
	"encoding/json"
	"os"

	"github.com/annel0/soundsteps/internal/logging"
)

// DefaultAchievements is served when the achievements file is missing or
// corrupt. Unlike the other content sources this endpoint never fails:
// the client renders an empty achievements screen instead of an error.
func DefaultAchievements() map[string]interface{} {
	return map[string]interface{}{
		"modules":    map[string]interface{}{},
		"streaks":    map[string]interface{}{},
		"xpPerLevel": 500,
	}
}

// Achievements loads the achievements configuration (XP values and
// achievement definitions) from path, degrading to the default payload.
func Achievements(path string) map[string]interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Achievements file unreadable: %v", err)
		}
		return DefaultAchievements()
	}

	var cfg map[string]interface{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		logging.Warn("Achievements file corrupt, serving defaults: %v", err)
		return DefaultAchievements()
	}
	return cfg
}
