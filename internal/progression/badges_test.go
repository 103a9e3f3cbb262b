package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeCatalogAscending(t *testing.T) {
	all := Badges()
	require.Len(t, all, 12)
	assert.Equal(t, "b10", all[0].ID)
	assert.Equal(t, "b200", all[len(all)-1].ID)
	assert.Equal(t, "10 bonnes réponses", all[0].Description)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].RequiredCorrect, all[i-1].RequiredCorrect)
	}
}

func TestEarnedBadges(t *testing.T) {
	assert.Empty(t, EarnedBadges(9))

	earned := EarnedBadges(35)
	require.Len(t, earned, 3)
	assert.Equal(t, []string{"b10", "b20", "b30"}, ids(earned))

	assert.Len(t, EarnedBadges(1000), 12)
}

func TestNextBadge(t *testing.T) {
	b, ok := NextBadge(0)
	require.True(t, ok)
	assert.Equal(t, "b10", b.ID)

	b, ok = NextBadge(100)
	require.True(t, ok)
	assert.Equal(t, "b150", b.ID)

	_, ok = NextBadge(200)
	assert.False(t, ok)
}

func TestNewlyEarned(t *testing.T) {
	tests := []struct {
		name     string
		old, new int
		want     string
	}{
		{name: "crosses first threshold", old: 9, new: 10, want: "b10"},
		{name: "no threshold crossed", old: 11, new: 19},
		{name: "jumps two thresholds", old: 18, new: 31, want: "b30"},
		{name: "unchanged", old: 50, new: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := NewlyEarned(tt.old, tt.new)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, b.ID)
		})
	}
}

func ids(bs []Badge) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}
