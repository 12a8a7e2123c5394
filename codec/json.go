package codec

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// JSON is a Codec backed by json-iterator. Numbers decode as json.Number so
// integers keep their precision, map keys are sorted on encode.
// The zero value is ready to use.
type JSON struct {
	// Indent, when set, pretty prints encoded payloads.
	Indent string
}

var _ Codec = JSON{}
var _ Shaper = JSON{}

var jsonAPI = jsoniter.Config{
	EscapeHTML:  true,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

func (JSON) Name() string { return "json" }

func (c JSON) Encode(tree any) ([]byte, error) {
	if c.Indent != "" {
		return jsonAPI.MarshalIndent(tree, "", c.Indent)
	}
	return jsonAPI.Marshal(tree)
}

func (JSON) Decode(data []byte) (any, error) {
	var tree any
	if err := jsonAPI.Unmarshal(data, &tree); err != nil {
		return nil, decodeError("json", err)
	}
	return tree, nil
}

// Shape classifies the payload with gjson without building the tree.
func (JSON) Shape(data []byte) Shape {
	if !gjson.ValidBytes(data) {
		return ShapeInvalid
	}
	result := gjson.ParseBytes(data)
	switch {
	case result.IsObject():
		return ShapeObject
	case result.IsArray():
		return ShapeArray
	case result.Type == gjson.Null:
		return ShapeNull
	default:
		return ShapeScalar
	}
}
