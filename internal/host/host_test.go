package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDShape(t *testing.T) {
	id := ID()
	require.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", id)
}

func TestIDStable(t *testing.T) {
	assert.Equal(t, ID(), ID())
}

func TestFingerprintDeterministic(t *testing.T) {
	facts := []string{"myhost", "Linux", "6.1.0", "#1 SMP", "x86_64", "amd64"}
	assert.Equal(t, fingerprint(facts), fingerprint(facts))
	assert.NotEqual(t, fingerprint(facts),
		fingerprint([]string{"otherhost", "Linux", "6.1.0", "#1 SMP", "x86_64", "amd64"}))
}

func TestCstr(t *testing.T) {
	assert.Equal(t, "abc", cstr([]byte{'a', 'b', 'c', 0, 'x'}))
	assert.Equal(t, "abc", cstr([]byte("abc")))
	assert.Equal(t, "", cstr([]byte{0}))
}
