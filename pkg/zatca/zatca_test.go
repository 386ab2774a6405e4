package zatca_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

func TestValidateVATNumber(t *testing.T) {
	cases := []struct {
		name    string
		vat     string
		wantErr bool
	}{
		{"valido", "300000000000003", false},
		{"corto", "30000000000003", true},
		{"no empieza en 3", "100000000000003", true},
		{"no termina en 3", "300000000000001", true},
		{"letras", "30000000000000A", true},
		{"vacio", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := zatca.ValidateVATNumber(tc.vat)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDigits(t *testing.T) {
	assert.NoError(t, zatca.ValidateDigits("zip", "12345", 5))
	assert.Error(t, zatca.ValidateDigits("zip", "1234", 5))
	assert.Error(t, zatca.ValidateDigits("zip", "1234a", 5))
	assert.NoError(t, zatca.ValidateDigits("additional_no", "0001", 4))
}

func TestTLV_EncodeDecode(t *testing.T) {
	b64, err := zatca.EncodeTLV([]zatca.TLV{
		{Tag: zatca.TagSellerName, Value: []byte("شركة")},
		{Tag: zatca.TagVATNumber, Value: []byte("300000000000003")},
		{Tag: zatca.TagTotalWithVAT, Value: []byte("230.00")},
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(len("شركة")), raw[1], "el largo es en bytes UTF-8, no en runas")

	fields, err := zatca.DecodeTLV(b64)
	require.NoError(t, err)
	assert.Equal(t, "شركة", string(fields[zatca.TagSellerName]))
	assert.Equal(t, "300000000000003", string(fields[zatca.TagVATNumber]))
	assert.Equal(t, "230.00", string(fields[zatca.TagTotalWithVAT]))
	assert.Equal(t, []byte{1, 2, 4}, zatca.SortedTags(fields))
}

func TestTLV_ValorDemasiadoLargo(t *testing.T) {
	_, err := zatca.EncodeTLV([]zatca.TLV{{Tag: 1, Value: make([]byte, 256)}})
	assert.Error(t, err)
}

func TestTLV_Truncado(t *testing.T) {
	_, err := zatca.DecodeTLV(base64.StdEncoding.EncodeToString([]byte{1, 5, 'a'}))
	assert.Error(t, err)
}

func TestPlaceholderPIH_EsHashDeCero(t *testing.T) {
	sum := sha256.Sum256([]byte("0"))
	expected := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
	assert.Equal(t, expected, zatca.PlaceholderPIH)
}
