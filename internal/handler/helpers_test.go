package handler_test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// newMultipartBody writes a multipart form with the given fields and, when
// fileField is non-empty, a single file part.
func newMultipartBody(t *testing.T, buf *bytes.Buffer, fields map[string]string, fileField, fileName string, content []byte) *multipart.Writer {
	t.Helper()
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return writer
}
