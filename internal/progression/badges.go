package progression

import "fmt"

// Badge is an achievement unlocked by a number of correct answers.
type Badge struct {
	ID              string `json:"id"`
	Emoji           string `json:"emoji"`
	Label           string `json:"label"`
	Description     string `json:"description"`
	RequiredCorrect int    `json:"requiredCorrect"`
}

func badge(required int, emoji, label string) Badge {
	return Badge{
		ID:              fmt.Sprintf("b%d", required),
		Emoji:           emoji,
		Label:           label,
		Description:     fmt.Sprintf("%d bonnes réponses", required),
		RequiredCorrect: required,
	}
}

// badges is sorted by strictly ascending RequiredCorrect.
var badges = []Badge{
	badge(10, "⭐", "Première étoile"),
	badge(20, "🌟", "Étoile brillante"),
	badge(30, "🔥", "En feu !"),
	badge(40, "🚀", "Fusée du savoir"),
	badge(50, "🏅", "Champion"),
	badge(60, "💫", "Super étoile"),
	badge(70, "🦁", "Roi de la jungle"),
	badge(80, "👑", "Couronne royale"),
	badge(90, "🌈", "Arc-en-ciel"),
	badge(100, "💎", "Diamant"),
	badge(150, "🏆", "Légende"),
	badge(200, "🌍", "Maître du monde"),
}

// Badges returns the full catalog in ascending order.
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// EarnedBadges returns every badge unlocked by total, ascending.
func EarnedBadges(total int) []Badge {
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if b.RequiredCorrect > total {
			break
		}
		out = append(out, b)
	}
	return out
}

// NextBadge returns the first badge not yet unlocked.
func NextBadge(total int) (Badge, bool) {
	for _, b := range badges {
		if b.RequiredCorrect > total {
			return b, true
		}
	}
	return Badge{}, false
}

// NewlyEarned returns the highest badge unlocked when moving from oldTotal to newTotal.
func NewlyEarned(oldTotal, newTotal int) (Badge, bool) {
	before := len(EarnedBadges(oldTotal))
	after := EarnedBadges(newTotal)
	if len(after) <= before {
		return Badge{}, false
	}
	return after[len(after)-1], true
}
