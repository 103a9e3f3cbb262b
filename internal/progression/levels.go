// Package progression holds the pure scoring rules: levels, medals and badges.
package progression

// PointsPerLevel is the number of correct answers needed to gain one level.
const PointsPerLevel = 10

// Level converts a cumulative score into a level.
func Level(total int) int {
	return total / PointsPerLevel
}

// ProgressToNextLevel returns the points earned inside the current level.
func ProgressToNextLevel(total int) int {
	return total % PointsPerLevel
}

// Medal is a cosmetic tier derived from the level.
type Medal string

const (
	MedalNone    Medal = "none"
	MedalBronze  Medal = "bronze"
	MedalSilver  Medal = "argent"
	MedalGold    Medal = "or"
	MedalDiamond Medal = "diamant"
)

// MedalInfo describes a medal tier.
type MedalInfo struct {
	Medal    Medal  `json:"medal"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji"`
	MinLevel int    `json:"minLevel"`
}

// medals is ordered by ascending MinLevel.
var medals = []MedalInfo{
	{Medal: MedalNone, Label: "", Emoji: "", MinLevel: 0},
	{Medal: MedalBronze, Label: "Bronze", Emoji: "🥉", MinLevel: 3},
	{Medal: MedalSilver, Label: "Argent", Emoji: "🥈", MinLevel: 5},
	{Medal: MedalGold, Label: "Or", Emoji: "🥇", MinLevel: 10},
	{Medal: MedalDiamond, Label: "Diamant", Emoji: "💎", MinLevel: 15},
}

// Medals returns every tier in ascending order.
func Medals() []MedalInfo {
	out := make([]MedalInfo, len(medals))
	copy(out, medals)
	return out
}

// MedalFor returns the highest tier whose minimum level is reached.
func MedalFor(level int) Medal {
	return medalInfoFor(level).Medal
}

func medalInfoFor(level int) MedalInfo {
	best := medals[0]
	for _, m := range medals {
		if level >= m.MinLevel {
			best = m
		}
	}
	return best
}

// Info returns display data for m. Unknown medals resolve to none.
func (m Medal) Info() MedalInfo {
	for _, info := range medals {
		if info.Medal == m {
			return info
		}
	}
	return medals[0]
}

// MedalGoal is the next medal a student can reach.
type MedalGoal struct {
	Medal        MedalInfo `json:"medal"`
	LevelsNeeded int       `json:"levelsNeeded"`
}

// NextMedal returns the first tier above level and how many levels are missing.
// It reports false once the top tier is reached.
func NextMedal(level int) (MedalGoal, bool) {
	for _, m := range medals {
		if m.MinLevel > level {
			return MedalGoal{Medal: m, LevelsNeeded: m.MinLevel - level}, true
		}
	}
	return MedalGoal{}, false
}

// Progress is a read model combining every level-derived value.
type Progress struct {
	CumulativeScore int        `json:"cumulativeScore"`
	Level           int        `json:"level"`
	Progress        int        `json:"progress"`
	PointsPerLevel  int        `json:"pointsPerLevel"`
	Medal           MedalInfo  `json:"medal"`
	NextMedal       *MedalGoal `json:"nextMedal,omitempty"`
}

// Snapshot computes the progress read model for a cumulative score.
func Snapshot(total int) Progress {
	level := Level(total)
	p := Progress{
		CumulativeScore: total,
		Level:           level,
		Progress:        ProgressToNextLevel(total),
		PointsPerLevel:  PointsPerLevel,
		Medal:           medalInfoFor(level),
	}
	if goal, ok := NextMedal(level); ok {
		p.NextMedal = &goal
	}
	return p
}
