package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1,000", FormatNumber(1000))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-1,234", FormatNumber(-1234))
}

func TestByteSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", ByteSize(512))
	assert.Equal(t, "1.0 KB", ByteSize(1024))
	assert.Equal(t, "1.5 MB", ByteSize(1536*1024))
}
