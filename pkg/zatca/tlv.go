package zatca

import (
	"encoding/base64"
	"fmt"
	"sort"
)

// Tags TLV del código QR (fase 2).
const (
	TagSellerName    byte = 1
	TagVATNumber     byte = 2
	TagTimestamp     byte = 3
	TagTotalWithVAT  byte = 4
	TagVATTotal      byte = 5
	TagInvoiceHash   byte = 6
	TagSignature     byte = 7
	TagPublicKey     byte = 8
	TagCertSignature byte = 9
)

// TLV campo tag-length-value. El largo se codifica en un byte, así que el valor no puede superar 255 bytes.
type TLV struct {
	Tag   byte
	Value []byte
}

// EncodeTLV concatena los campos y devuelve el base64 que va en el QR.
func EncodeTLV(fields []TLV) (string, error) {
	var buf []byte
	for _, f := range fields {
		if len(f.Value) > 255 {
			return "", fmt.Errorf("zatca: tag %d excede 255 bytes (%d)", f.Tag, len(f.Value))
		}
		buf = append(buf, f.Tag, byte(len(f.Value)))
		buf = append(buf, f.Value...)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeTLV interpreta el base64 de un QR y devuelve los valores por tag.
func DecodeTLV(b64 string) (map[byte][]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("zatca: QR no es base64: %w", err)
	}
	out := make(map[byte][]byte)
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, fmt.Errorf("zatca: TLV truncado en la posición %d", i)
		}
		tag, n := raw[i], int(raw[i+1])
		i += 2
		if i+n > len(raw) {
			return nil, fmt.Errorf("zatca: valor del tag %d truncado", tag)
		}
		out[tag] = raw[i : i+n]
		i += n
	}
	return out, nil
}

// SortedTags devuelve los tags decodificados en orden ascendente.
func SortedTags(m map[byte][]byte) []byte {
	tags := make([]byte, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
