// pkg/saltapi/codec.go

package saltapi

import (
	"bytes"

	cerr "github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	mimeYAML = "application/x-yaml"
	mimeJSON = "application/json"
)

// encodeYAML renders v the way salt-api examples are usually written:
// collections holding only scalars are emitted in flow style, everything
// else in block style. A list with one {client: test} command therefore
// encodes as "- {client: test}\n".
func encodeYAML(v any) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", cerr.Wrap(err, "encode yaml")
	}
	flowLeafCollections(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", cerr.Wrap(err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return "", cerr.Wrap(err, "encode yaml")
	}
	return buf.String(), nil
}

func flowLeafCollections(n *yaml.Node) {
	for _, c := range n.Content {
		flowLeafCollections(c)
	}
	if n.Kind != yaml.MappingNode && n.Kind != yaml.SequenceNode {
		return
	}
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode && c.Kind != yaml.AliasNode {
			n.Style &^= yaml.FlowStyle
			return
		}
	}
	n.Style |= yaml.FlowStyle
}

// returnEnvelope is the top-level structure of every salt-api response.
type returnEnvelope struct {
	Return yaml.Node `yaml:"return"`
}

// decodeReturn parses a YAML response body and decodes its `return` field
// into out.
func decodeReturn(body []byte, out any) error {
	var env returnEnvelope
	if err := yaml.Unmarshal(body, &env); err != nil {
		return cerr.Wrap(err, "decode salt-api response")
	}
	if env.Return.Kind == 0 {
		return cerr.New("salt-api response has no return field")
	}
	if err := env.Return.Decode(out); err != nil {
		return cerr.Wrap(err, "decode salt-api return field")
	}
	return nil
}
