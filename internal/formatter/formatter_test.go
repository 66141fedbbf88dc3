package formatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContent struct{ err error }

func (s stubContent) ToHTML() (string, error)     { return "html", s.err }
func (s stubContent) ToText() (string, error)     { return "text", s.err }
func (s stubContent) ToMarkdown() (string, error) { return "markdown", s.err }
func (s stubContent) ToJSON() ([]byte, error)     { return []byte("json"), s.err }
func (s stubContent) ToCSV() (string, error)      { return "csv", s.err }

func TestFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := Format(stubContent{}, f)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := Format(stubContent{}, "pdf")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Format(stubContent{err: boom}, "json")
	assert.ErrorIs(t, err, boom)
}

func TestFromExtension(t *testing.T) {
	assert.Equal(t, "markdown", FromExtension("out.MD"))
	assert.Equal(t, "csv", FromExtension("/tmp/records.csv"))
	assert.Equal(t, "", FromExtension("records"))
	assert.Equal(t, "", FromExtension("records.xml"))
}
