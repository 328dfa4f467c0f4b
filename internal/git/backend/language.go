package backend

import (
	"bytes"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Git treats a blob as binary when a NUL byte appears in this prefix.
const binarySniffLen = 8000

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	return lexers.Match(filepath.Base(path))
}

// LanguageForPath returns the syntax name used to highlight path, or "" when
// no lexer matches.
func LanguageForPath(path string) string {
	lexer := lexerForPath(path)
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

func newFileText(path string, oldData, newData []byte, oldExists, newExists bool) *FileText {
	ft := &FileText{
		Path:      path,
		OldExists: oldExists,
		NewExists: newExists,
		Binary:    isBinary(oldData) || isBinary(newData),
		Language:  LanguageForPath(path),
	}
	if !ft.Binary {
		ft.Old = string(oldData)
		ft.New = string(newData)
	}
	return ft
}
