package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGuide(t *testing.T) {
	guide, err := NewGuide()
	require.NoError(t, err)
	out := string(guide.HTML)
	require.Contains(t, out, `<h1 id="about-the-air-quality-index">`)
	require.Contains(t, out, "<table>")
	require.Contains(t, out, InfoURL)
}

func TestRenderEscapesRawHTML(t *testing.T) {
	out, err := Render([]byte("hello <script>alert(1)</script>"))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(out), "<script>"))
}
