package codec

// CodecType selects the envelope serializer. Both codecs speak the same
// JSON wire format; they differ only in the implementation underneath.
type CodecType byte

const (
	CodecTypeJSON  CodecType = 0 // encoding/json
	CodecTypeSonic CodecType = 1 // bytedance/sonic
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeSonic {
		return &SonicCodec{}
	}

	return &JSONCodec{}
}

// ByName maps a config-level codec name to a type, defaulting to JSON for
// anything unrecognized.
func ByName(name string) CodecType {
	if name == "sonic" {
		return CodecTypeSonic
	}
	return CodecTypeJSON
}
