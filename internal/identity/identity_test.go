package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashNameDeterminism(t *testing.T) {
	id1 := HashName("arcana")
	id2 := HashName("arcana")

	assert.Equal(t, id1, id2, "same name must produce same id")
	assert.NotZero(t, id1)
}

func TestHashNameDistinguishesNames(t *testing.T) {
	ids := map[NodeID]string{}
	for _, name := range []string{"q1", "q2", "q3", "arcana", "rituals", "necronomicron"} {
		id := HashName(name)
		prev, seen := ids[id]
		assert.False(t, seen, "names %q and %q collided", name, prev)
		ids[id] = name
	}
}

func TestHashNameCaseSensitive(t *testing.T) {
	assert.NotEqual(t, HashName("Rituals"), HashName("rituals"))
}

func TestHashNameNormalizesUnicode(t *testing.T) {
	// "é" as a single codepoint vs "e" + combining acute accent.
	composed := "séance"
	decomposed := "séance"

	assert.Equal(t, HashName(composed), HashName(decomposed),
		"NFC-equivalent names must share an id")
}

func TestHashNameWhitespaceSensitive(t *testing.T) {
	assert.NotEqual(t, HashName("rituals"), HashName(" rituals"))
	assert.NotEqual(t, HashName("rituals"), HashName("rituals\n"))
}
