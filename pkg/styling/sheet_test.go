package styling

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewriabinin/blog/pkg/renderer/html"
)

func TestNewStyle_Compacts(t *testing.T) {
	style := NewStyle("card", `
		/* cards */
		.card {
			padding: 1rem;
		}
	`)
	assert.Equal(t, ".card { padding: 1rem; }", style.CSS)
	assert.True(t, strings.HasPrefix(style.Hash, "_"))
	assert.Len(t, style.Hash, 7)
}

func TestRemoveComments(t *testing.T) {
	assert.Equal(t, "a  b", removeComments("a /* x */ b"))
	assert.Equal(t, "a ", removeComments("a /* unterminated"))
}

func TestSheet_OrderAndDedup(t *testing.T) {
	s := NewSheet()
	s.Add("a", ".a { color: red; }")
	s.Add("b", ".b { color: blue; }")
	s.Add("a-again", ".a {\n color: red;\n}")
	s.Add("empty", "/* nothing */")

	styles := s.Styles()
	require.Len(t, styles, 2)
	assert.Equal(t, "a", styles[0].Name)
	assert.Equal(t, "b", styles[1].Name)
	assert.Equal(t, ".a { color: red; }\n.b { color: blue; }\n", s.CSS())
}

func TestSheet_HashFollowsContent(t *testing.T) {
	a := NewSheet()
	a.Add("a", ".a{}")
	b := NewSheet()
	b.Add("a", ".a{}")
	assert.Equal(t, a.Hash(), b.Hash())

	b.Add("b", ".b{}")
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestSheet_Node(t *testing.T) {
	s := NewSheet()
	s.Add("a", ".a > b { color: red; }")

	out, err := html.RenderToString(s.Node())
	require.NoError(t, err)
	assert.Equal(t, `<style data-sheet="`+s.Hash()+`">.a > b { color: red; }`+"\n"+`</style>`, out)
}
