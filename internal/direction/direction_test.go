package direction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOppositeIsInvolution(t *testing.T) {
	for _, d := range []Direction{Left, Right, Up, Down} {
		assert.Equal(t, d, d.Opposite().Opposite(), "opposite twice must return to %v", d)
	}
}

func TestOppositePairs(t *testing.T) {
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Left, Right.Opposite())
	assert.Equal(t, Down, Up.Opposite())
	assert.Equal(t, Up, Down.Opposite())
}

func TestVimKeyInjective(t *testing.T) {
	seen := map[string]Direction{}
	for _, d := range []Direction{Left, Right, Up, Down} {
		key := d.VimKey()
		require.NotEmpty(t, key)
		if other, ok := seen[key]; ok {
			t.Fatalf("VimKey collision: %v and %v both map to %q", d, other, key)
		}
		seen[key] = d
	}
}

func TestFromStringRoundTrip(t *testing.T) {
	for _, d := range []Direction{Left, Right, Up, Down} {
		got, err := FromString(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestFromStringRejectsUnknown(t *testing.T) {
	for _, s := range []string{"Left", "LEFT", "sideways", ""} {
		_, err := FromString(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}
