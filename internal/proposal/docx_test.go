package proposal

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDOCX(t *testing.T) {
	key := os.Getenv("UNIDOC_LICENSE_API_KEY")
	if key == "" {
		t.Skip("UNIDOC_LICENSE_API_KEY not set")
	}
	require.NoError(t, SetLicense(key))
	path := filepath.Join(t.TempDir(), "out", "generated_proposal.docx")
	require.NoError(t, WriteDOCX(Build(testProfile(t), nil, submitted), path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		body = string(data)
	}
	require.NotEmpty(t, body)
	assert.Contains(t, body, "PROPOSAL DOCUMENT")
	assert.Contains(t, body, "Acme Staffing LLC")
	assert.Contains(t, body, "Performance Monitoring")
}

func TestSetLicenseEmptyKey(t *testing.T) {
	assert.NoError(t, SetLicense(""))
}
