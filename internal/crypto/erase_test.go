package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureErase(t *testing.T) {
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	SecureErase(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	SecureErase(nil)
	SecureErase([]byte{})
}
