package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustLevelString(t *testing.T) {
	assert.Equal(t, "undefined", TrustUndefined.String())
	assert.Equal(t, "never", TrustNever.String())
	assert.Equal(t, "marginal", TrustMarginal.String())
	assert.Equal(t, "full", TrustFull.String())
	assert.Equal(t, "ultimate", TrustUltimate.String())
}

func TestTrustLevelAtLeast(t *testing.T) {
	assert.True(t, TrustFull.AtLeast(TrustMarginal))
	assert.True(t, TrustFull.AtLeast(TrustFull))
	assert.False(t, TrustMarginal.AtLeast(TrustFull))
	assert.True(t, TrustUltimate.AtLeast(TrustNever))
}
