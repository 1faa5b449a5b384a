package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextbookNameOf(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		root     string
		expected string
	}{
		{
			name:     "file inside textbook folder",
			path:     "/Library/Grammar in Use/unit-01.pdf",
			root:     "/Library",
			expected: "Grammar in Use",
		},
		{
			name:     "nested subfolder keeps first segment",
			path:     "/Library/Grammar in Use/answers/key.pdf",
			root:     "/Library",
			expected: "Grammar in Use",
		},
		{
			name:     "root prefix matched case-insensitively",
			path:     "/library/Vocabulary/week1.pdf",
			root:     "/Library",
			expected: "Vocabulary",
		},
		{
			name:     "file directly under root groups under its own name",
			path:     "/Library/loose.pdf",
			root:     "/Library",
			expected: "loose.pdf",
		},
		{
			name:     "path equal to root",
			path:     "/Library",
			root:     "/Library",
			expected: "Unknown",
		},
		{
			name:     "trailing slash on root",
			path:     "/Library/Reading/passage.pdf",
			root:     "/Library/",
			expected: "Reading",
		},
		{
			name:     "empty root uses first segment",
			path:     "/Reading/passage.pdf",
			root:     "",
			expected: "Reading",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TextbookNameOf(tt.path, tt.root))
		})
	}
}

func TestIsSyncedFileName(t *testing.T) {
	assert.True(t, IsSyncedFileName("unit-01.pdf"))
	assert.True(t, IsSyncedFileName("UNIT-01.PDF"))
	assert.False(t, IsSyncedFileName("notes.txt"))
	assert.False(t, IsSyncedFileName("archive.pdf.zip"))
	assert.False(t, IsSyncedFileName("pdf"))
}
