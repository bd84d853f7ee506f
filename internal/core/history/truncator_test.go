package history

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

func sys(s string) models.ChatMessage  { return models.ChatMessage{Role: models.RoleSystem, Content: s} }
func user(s string) models.ChatMessage { return models.ChatMessage{Role: models.RoleUser, Content: s} }
func asst(s string) models.ChatMessage {
	return models.ChatMessage{Role: models.RoleAssistant, Content: s}
}

func TestTruncate_KeepsMostRecentThatFit(t *testing.T) {
	msgs := []models.ChatMessage{
		sys("S"),
		user(strings.Repeat("a", 40)),
		user(strings.Repeat("b", 40)),
		user(strings.Repeat("c", 40)),
	}

	for _, budget := range []int{10, 15} {
		got, err := Truncate(msgs, budget)
		require.NoError(t, err)
		require.Len(t, got, 2, "budget %d", budget)
		assert.Equal(t, msgs[0], got[0])
		assert.Equal(t, msgs[3], got[1])
	}

	got, err := Truncate(msgs, 20)
	require.NoError(t, err)
	assert.Equal(t, []models.ChatMessage{msgs[0], msgs[2], msgs[3]}, got)
}

func TestTruncate_SkippedMessageDoesNotStopWalk(t *testing.T) {
	msgs := []models.ChatMessage{
		user("tiny"),                   // 1 token
		asst(strings.Repeat("x", 400)), // 100 tokens, never fits
		user(strings.Repeat("y", 20)),  // 5 tokens
	}
	got, err := Truncate(msgs, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.ChatMessage{msgs[0], msgs[2]}, got)
}

func TestTruncate_SystemMessagesAlwaysKeptFirst(t *testing.T) {
	msgs := []models.ChatMessage{
		user("hello there"),
		sys(strings.Repeat("s", 1000)),
		asst("hi"),
		sys("second system"),
	}
	got, err := Truncate(msgs, 3)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, msgs[1], got[0])
	assert.Equal(t, msgs[3], got[1])
	assert.Equal(t, msgs[0], got[2])
	assert.Equal(t, msgs[2], got[3])
}

func TestTruncate_OversizedMessageExcluded(t *testing.T) {
	msgs := []models.ChatMessage{user(strings.Repeat("z", 100))}
	got, err := Truncate(msgs, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTruncate_Empty(t *testing.T) {
	got, err := Truncate(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTruncate_InvalidBudget(t *testing.T) {
	for _, b := range []int{0, -5} {
		_, err := Truncate([]models.ChatMessage{user("x")}, b)
		require.ErrorIs(t, err, core.ErrValidation)
	}
}

func TestTruncate_BudgetAndGreedyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	roles := []models.Role{models.RoleSystem, models.RoleUser, models.RoleAssistant}

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(12)
		msgs := make([]models.ChatMessage, n)
		for i := range msgs {
			msgs[i] = models.ChatMessage{
				Role:    roles[rng.Intn(len(roles))],
				Content: strings.Repeat("w", rng.Intn(120)),
			}
		}
		budget := 1 + rng.Intn(60)

		got, err := Truncate(msgs, budget)
		require.NoError(t, err)

		var wantSystem, others []models.ChatMessage
		for _, m := range msgs {
			if m.Role == models.RoleSystem {
				wantSystem = append(wantSystem, m)
			} else {
				others = append(others, m)
			}
		}
		require.GreaterOrEqual(t, len(got), len(wantSystem))
		assert.Equal(t, wantSystem, got[:len(wantSystem)])

		kept := got[len(wantSystem):]
		used := 0
		for _, m := range kept {
			assert.NotEqual(t, models.RoleSystem, m.Role)
			used += EstimateTokens(m.Content)
		}
		assert.LessOrEqual(t, used, budget)

		// Replaying the newest-first walk must reproduce exactly the kept set.
		running := 0
		var expect []models.ChatMessage
		for i := len(others) - 1; i >= 0; i-- {
			c := EstimateTokens(others[i].Content)
			if running+c <= budget {
				running += c
				expect = append([]models.ChatMessage{others[i]}, expect...)
			}
		}
		assert.Equal(t, len(expect), len(kept))
		assert.Equal(t, running, used)
	}
}
