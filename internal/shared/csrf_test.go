package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praetor-auth/praetor/internal/shared"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	m := shared.NewCSRFManager("secret")
	token := m.TokenFor("sid-1")
	assert.NotEmpty(t, token)
	assert.NoError(t, m.VerifyToken("sid-1", token))
}

func TestCSRFTokenMismatch(t *testing.T) {
	m := shared.NewCSRFManager("secret")
	token := m.TokenFor("sid-1")

	assert.ErrorIs(t, m.VerifyToken("sid-2", token), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken("sid-1", "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken("sid-1", ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken("", token), shared.ErrCSRFTokenMissing)

	other := shared.NewCSRFManager("different")
	assert.ErrorIs(t, other.VerifyToken("sid-1", token), shared.ErrCSRFTokenMismatch)
}

func TestCSRFTokenForEmptySession(t *testing.T) {
	m := shared.NewCSRFManager("secret")
	assert.Empty(t, m.TokenFor(""))
}
