package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		opt     PutOptions
		wantExt string
		wantErr error
	}{
		{
			name:    "pdf accepted",
			opt:     PutOptions{Filename: "report.pdf"},
			wantExt: ".pdf",
		},
		{
			name:    "extension matching is case-insensitive",
			opt:     PutOptions{Filename: "REPORT.PDF"},
			wantExt: ".pdf",
		},
		{
			name:    "declared content type must be in the table",
			opt:     PutOptions{Filename: "report.pdf", ContentType: "application/x-evil"},
			wantErr: ErrContentTypeNotAllowed,
		},
		{
			name:    "absent content type is fine",
			opt:     PutOptions{Filename: "notes.txt"},
			wantExt: ".txt",
		},
		{
			name:    "mismatched but allowed content type passes",
			opt:     PutOptions{Filename: "notes.txt", ContentType: "application/pdf"},
			wantExt: ".txt",
		},
		{
			name:    "executable rejected",
			opt:     PutOptions{Filename: "evil.exe"},
			wantErr: ErrExtensionNotAllowed,
		},
		{
			name:    "no extension rejected",
			opt:     PutOptions{Filename: "README"},
			wantErr: ErrExtensionNotAllowed,
		},
		{
			name:    "empty filename rejected",
			opt:     PutOptions{},
			wantErr: ErrExtensionNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ValidateUpload(tt.opt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantExt, ext)
			}
		})
	}
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "pdf", FileType(".pdf"))
	assert.Equal(t, "docx", FileType(".DOCX"))
	assert.Equal(t, "txt", FileType("txt"))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", MIMEType(".pdf"))
	assert.Equal(t, "application/pdf", MIMEType("pdf"))
	assert.Equal(t, "text/plain", MIMEType(".txt"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", MIMEType(".docx"))
	assert.Equal(t, "application/octet-stream", MIMEType(".bin"))
}

func TestParseVersionPrefix(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  int
		valid bool
	}{
		{"simple", "v1_abc.pdf", 1, true},
		{"multi digit", "v12_abc.txt", 12, true},
		{"no prefix", "abc.pdf", 0, false},
		{"missing underscore", "v3.pdf", 0, false},
		{"non-numeric", "vx_abc.pdf", 0, false},
		{"zero version", "v0_abc.pdf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := parseVersionPrefix(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}
