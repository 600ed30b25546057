package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewGraphCmd(t *testing.T) {
	cmd := newGraphCmd()

	assert.Equal(t, "graph <config>", cmd.Use)
	for _, name := range []string{"format", "include-external", "cluster", "base"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing --%s flag", name)
	}
	assert.Equal(t, "dot", cmd.Flags().Lookup("format").DefValue)
}

func TestRunGraph(t *testing.T) {
	config := writeConfig(t, proxiesYAML)

	var out bytes.Buffer
	require.NoError(t, runGraph(&out, config, graphOptions{format: "dot", includeExternal: true}, zap.NewNop()))
	assert.Contains(t, out.String(), "digraph")
	assert.Contains(t, out.String(), "ApiGatewayMethodsqsPost")
	assert.Contains(t, out.String(), "ApigatewayToSqsRole")

	out.Reset()
	require.NoError(t, runGraph(&out, config, graphOptions{format: "mermaid"}, zap.NewNop()))
	assert.NotContains(t, out.String(), "digraph")

	err := runGraph(&out, config, graphOptions{format: "svg"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunGraph_NoResources(t *testing.T) {
	config := writeConfig(t, "events: []\n")

	err := runGraph(&bytes.Buffer{}, config, graphOptions{format: "dot"}, zap.NewNop())
	assert.EqualError(t, err, "no resources found")
}
