package codec

import (
	"github.com/bytedance/sonic"
)

// SonicCodec uses bytedance/sonic, a JIT-accelerated JSON implementation.
// Output is interchangeable with JSONCodec; useful when snippets produce
// large captured output and envelope encoding starts to show up in profiles.
type SonicCodec struct{}

func (c *SonicCodec) Encode(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (c *SonicCodec) Decode(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (c *SonicCodec) Type() CodecType {
	return CodecTypeSonic
}
