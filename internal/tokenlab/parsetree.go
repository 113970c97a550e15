package tokenlab

import (
	"strings"

	"github.com/ethpandaops/jwtprobe/internal/backend"
)

const parseTreeValueWidth = 20

// RenderParseTree renders the backend parse tree, one node per line, two
// spaces of indentation per level. Values are cut to 20 characters.
func RenderParseTree(node *backend.ParseNode, indent int) string {
	var builder strings.Builder
	renderNode(&builder, node, indent)
	return builder.String()
}

func renderNode(b *strings.Builder, node *backend.ParseNode, indent int) {
	if node == nil {
		return
	}

	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(node.Symbol)

	if node.Value != "" {
		value := []rune(node.Value)
		if len(value) > parseTreeValueWidth {
			value = value[:parseTreeValueWidth]
		}
		b.WriteString(` = "` + string(value) + `..."`)
	}

	b.WriteString("\n")

	for _, child := range node.Children {
		renderNode(b, child, indent+1)
	}
}
