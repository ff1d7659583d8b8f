package symbols

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plcrun/plcrun/internal/plcerr"
)

// Resolving a nonexistent artifact must fail with a FatalInit error rather
// than panicking, since plugin.Open is the first thing Resolve does.
func TestResolveMissingArtifactIsFatalInit(t *testing.T) {
	_, err := Resolve("/nonexistent/path/does-not-exist.so")
	require.Error(t, err)

	var perr *plcerr.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, plcerr.FatalInit, perr.Kind)
}
