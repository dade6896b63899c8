package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/skytecs/hermes/internal/encoding"
)

func readAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "^XA^FDАнализ крови^FS^XZ\n"
	assert.Equal(t, input, readAll(t, []byte(input)))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Пробирка 1\n")...)
	assert.Equal(t, "Пробирка 1\n", readAll(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	// "Да" in UTF-16 LE with BOM.
	input := []byte{0xFF, 0xFE, 0x14, 0x04, 0x30, 0x04}
	assert.Equal(t, "Да", readAll(t, input))
}

func TestNewUTF8Reader_Windows1251Fallback(t *testing.T) {
	text := "Общий анализ крови. Пациент Иванова Мария Петровна, направление от терапевта, взятие материала в процедурном кабинете.\n"

	encoded, err := charmap.Windows1251.NewEncoder().String(text)
	require.NoError(t, err)

	assert.Equal(t, text, readAll(t, []byte(encoded)))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	assert.Equal(t, "", readAll(t, nil))
}

func TestCodepage(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		want    *charmap.Charmap
		wantErr bool
	}

	tests := []testCase{
		{name: "CP866", input: "cp866", want: charmap.CodePage866},
		{name: "CP1251Alias", input: "Windows-1251", want: charmap.Windows1251},
		{name: "Trimmed", input: " cp1251 ", want: charmap.Windows1251},
		{name: "Unknown", input: "utf-7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encoding.Codepage(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, encoding.ErrUnknownCodepage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
