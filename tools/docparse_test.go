package tools

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDocumentText_PlainText(t *testing.T) {
	text, err := ExtractDocumentText("resume.txt", []byte("  Staff   engineer\nGo and\tdistributed systems  "))
	require.NoError(t, err)
	assert.Equal(t, "Staff engineer\nGo and distributed systems", text)
}

func TestExtractDocumentText_DOCX(t *testing.T) {
	data := docxBytes(t, `<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p><w:p><w:r><w:t>Go</w:t></w:r></w:p>`)

	text, err := ExtractDocumentText("CV.DOCX", data)
	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer\nGo", text)
}

func TestExtractDocumentText_DOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractDocumentText("cv.docx", buf.Bytes())
	assert.Error(t, err)
}

func TestExtractDocumentText_Unsupported(t *testing.T) {
	_, err := ExtractDocumentText("photo.png", []byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestExtractDocumentText_Empty(t *testing.T) {
	_, err := ExtractDocumentText("empty.txt", []byte(" \n\t "))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ExtractDocumentText("empty.docx", docxBytes(t, `<w:p></w:p>`))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractDocumentText_InvalidUTF8(t *testing.T) {
	_, err := ExtractDocumentText("bad.txt", []byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)
}
