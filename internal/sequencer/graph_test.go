package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("js:clean", nil, nil)
	reg.Register("js", []string{"js:clean"}, nil)
	reg.Register("css", nil, nil)
	reg.Register("default", []string{"js", "css"}, nil)
	reg.Register("watch", []string{"default"}, nil)
	return reg
}

func TestSupportedGraphFormats_AllRender(t *testing.T) {
	for _, f := range SupportedGraphFormats() {
		out, err := RenderGraph(graphRegistry(), f, "js")
		require.NoError(t, err, f)
		assert.Contains(t, out, "js:clean", f)
	}
}

func TestRenderGraph_Text(t *testing.T) {
	out, err := RenderGraph(graphRegistry(), GraphText)
	require.NoError(t, err)
	assert.Equal(t, "css\ndefault <- css, js\njs <- js:clean\njs:clean\nwatch <- default\n", out)
}

func TestRenderGraph_RootsLimitClosure(t *testing.T) {
	out, err := RenderGraph(graphRegistry(), GraphText, "js")
	require.NoError(t, err)
	assert.Equal(t, "js:clean\njs <- js:clean\n", out)
}

func TestRenderGraph_Mermaid(t *testing.T) {
	out, err := RenderGraph(graphRegistry(), GraphMermaid, "js")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, `js_clean["js:clean"]`)
	assert.Contains(t, out, "js_clean --> js\n")
}

func TestRenderGraph_DOT(t *testing.T) {
	out, err := RenderGraph(graphRegistry(), GraphDOT, "default")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph tasks {")
	assert.Contains(t, out, `"js:clean" -> "js";`)
	assert.Contains(t, out, `"css" -> "default";`)
}

func TestRenderGraph_Errors(t *testing.T) {
	_, err := RenderGraph(graphRegistry(), "svg")
	assert.Error(t, err)

	_, err = RenderGraph(graphRegistry(), GraphText, "missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
}
