package models

import (
	"mime"
	"path/filepath"
	"strings"
)

// FileCategory is the coarse type of an attachment, derived from its
// extension. It prefixes remote file names and selects presentation.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryPDF      FileCategory = "pdf"
	CategoryText     FileCategory = "text"
	CategoryAudio    FileCategory = "audio"
	CategoryVideo    FileCategory = "video"
	CategoryDocument FileCategory = "document"
	CategoryUnknown  FileCategory = "unknown"
)

var categoryByExt = map[string]FileCategory{
	"png": CategoryImage, "jpg": CategoryImage, "jpeg": CategoryImage, "gif": CategoryImage, "bmp": CategoryImage,
	"pdf": CategoryPDF,
	"txt": CategoryText, "csv": CategoryText, "xml": CategoryText,
	"mp3": CategoryAudio, "wav": CategoryAudio, "aac": CategoryAudio, "m4a": CategoryAudio, "opus": CategoryAudio, "oga": CategoryAudio,
	"mp4": CategoryVideo, "avi": CategoryVideo, "mov": CategoryVideo, "mkv": CategoryVideo,
	"doc": CategoryDocument, "docx": CategoryDocument, "xls": CategoryDocument, "xlsx": CategoryDocument, "ppt": CategoryDocument, "pptx": CategoryDocument,
}

// CategoryOf classifies an extension, with or without its leading dot.
// Matching is case-insensitive.
func CategoryOf(ext string) FileCategory {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if c, ok := categoryByExt[ext]; ok {
		return c
	}
	return CategoryUnknown
}

// CategoryOfName classifies a file name by its extension.
func CategoryOfName(name string) FileCategory {
	return CategoryOf(filepath.Ext(name))
}

// HasPreview reports whether the category gets an inline media preview.
func (c FileCategory) HasPreview() bool {
	return c == CategoryImage || c == CategoryVideo
}

// LocalFileRef describes a locally readable file selected for sending.
// Extension keeps its leading dot and is empty for files without one.
type LocalFileRef struct {
	Path        string
	DisplayName string
	MIMEType    string
	Extension   string
}

// NewLocalFileRef derives display name, extension and MIME type from path.
// It does not touch the filesystem.
func NewLocalFileRef(path string) LocalFileRef {
	name := filepath.Base(path)
	ext := filepath.Ext(name)

	mt := mime.TypeByExtension(strings.ToLower(ext))
	if mt == "" {
		mt = "application/octet-stream"
	}

	return LocalFileRef{
		Path:        path,
		DisplayName: name,
		MIMEType:    mt,
		Extension:   ext,
	}
}

// Category classifies the file by its extension.
func (f LocalFileRef) Category() FileCategory {
	return CategoryOf(f.Extension)
}
