package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustScore(t *testing.T, labels ...string) HandScore {
	t.Helper()
	score, err := EvaluateLabels(labels)
	require.NoError(t, err)
	return score
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    []string
		category HandCategory
	}{
		{"high card", []string{"Ah", "Kd", "9c", "5s", "2h"}, HighCard},
		{"pair", []string{"Ah", "Ad", "9c", "5s", "2h"}, Pair},
		{"two pair", []string{"Ah", "Ad", "9c", "9s", "2h"}, TwoPair},
		{"trips", []string{"Ah", "Ad", "Ac", "9s", "2h"}, ThreeOfAKind},
		{"straight", []string{"5h", "6d", "7c", "8s", "9h"}, Straight},
		{"wheel straight", []string{"Ah", "2d", "3c", "4s", "5h"}, Straight},
		{"flush", []string{"Ah", "Jh", "9h", "5h", "2h"}, Flush},
		{"full house", []string{"Ah", "Ad", "Ac", "9s", "9h"}, FullHouse},
		{"quads", []string{"Ah", "Ad", "Ac", "As", "9h"}, FourOfAKind},
		{"straight flush", []string{"5h", "6h", "7h", "8h", "9h"}, StraightFlush},
		{"royal flush", []string{"Th", "Jh", "Qh", "Kh", "Ah"}, StraightFlush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := mustScore(t, tt.cards...)
			assert.Equal(t, tt.category, score.Category())
		})
	}
}

func TestEvaluateTotalOrder(t *testing.T) {
	// Each hand strictly beats the next.
	hands := [][]string{
		{"Th", "Jh", "Qh", "Kh", "Ah"},
		{"Ah", "Ad", "Ac", "As", "9h"},
		{"Ah", "Ad", "Ac", "9s", "9h"},
		{"Ah", "Jh", "9h", "5h", "2h"},
		{"5h", "6d", "7c", "8s", "9h"},
		{"Ah", "2d", "3c", "4s", "5h"}, // wheel ranks below the 9-high straight
		{"Ah", "Ad", "Ac", "9s", "2h"},
		{"Ah", "Ad", "9c", "9s", "2h"},
		{"Ah", "Ad", "9c", "5s", "2h"},
		{"Ah", "Kd", "9c", "5s", "2h"},
	}
	for i := 1; i < len(hands); i++ {
		stronger := mustScore(t, hands[i-1]...)
		weaker := mustScore(t, hands[i]...)
		assert.Greater(t, stronger, weaker, "%v should beat %v", hands[i-1], hands[i])
	}
}

func TestEvaluateKickers(t *testing.T) {
	// Same pair, better kicker wins.
	akKicker := mustScore(t, "Ah", "Ad", "Kc", "5s", "2h")
	aqKicker := mustScore(t, "Ah", "Ad", "Qc", "5s", "2h")
	assert.Greater(t, akKicker, aqKicker)

	// Identical ranks in different suits tie exactly.
	hearts := mustScore(t, "Ah", "Kh", "9c", "5s", "2d")
	spades := mustScore(t, "As", "Ks", "9d", "5h", "2c")
	assert.Equal(t, hearts, spades)
}

func TestEvaluateOrderIndependent(t *testing.T) {
	sorted := mustScore(t, "2h", "5s", "9c", "Kd", "Ah")
	shuffled := mustScore(t, "Ah", "9c", "2h", "Kd", "5s")
	assert.Equal(t, sorted, shuffled)
}

func TestEvaluateBestOfSeven(t *testing.T) {
	// Hole cards Ah Kh with a heart-heavy board make the nut flush even
	// though the board pairs.
	score := mustScore(t, "Ah", "Kh", "Qh", "Jh", "9h", "Qc", "Qs")
	assert.Equal(t, Flush, score.Category())

	// The board's straight plays when the hole cards are dead.
	score = mustScore(t, "2c", "2d", "5h", "6s", "7d", "8c", "9h")
	assert.Equal(t, Straight, score.Category())
}

func TestEvaluateRejectsBadCounts(t *testing.T) {
	_, err := EvaluateLabels([]string{"Ah", "Kd"})
	assert.Error(t, err)

	_, err = EvaluateLabels([]string{"Ah", "Kd", "9c", "5s", "2h", "3c", "4d", "6s"})
	assert.Error(t, err)
}

func TestCategoryLabels(t *testing.T) {
	assert.Equal(t, "high_card", HighCard.String())
	assert.Equal(t, "two_pair", TwoPair.String())
	assert.Equal(t, "straight_flush", StraightFlush.String())
}
