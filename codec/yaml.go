package codec

import (
	"gopkg.in/yaml.v3"
)

// YAML is a Codec backed by yaml.v3. The zero value is ready to use.
type YAML struct{}

var _ Codec = YAML{}

func (YAML) Name() string { return "yaml" }

func (YAML) Encode(tree any) ([]byte, error) {
	return yaml.Marshal(tree)
}

func (YAML) Decode(data []byte) (any, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, decodeError("yaml", err)
	}
	return Normalize(tree)
}
