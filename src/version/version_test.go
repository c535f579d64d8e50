package version_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonicd/sonicd/src/version"
)

// TestVersionPrinting makes sure some things are always part of the printed version
// string.
func TestVersionPrinting(t *testing.T) {
	require.NotEmpty(t, version.Version, "version.Version cannot be completely empty")

	var buff bytes.Buffer
	version.Print(&buff)

	assert.Contains(t, buff.String(), version.Version)
	assert.Contains(t, buff.String(), runtime.Version())
	assert.Contains(t, buff.String(), version.Name)
}
