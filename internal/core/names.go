package core

import (
	"path/filepath"
	"unicode/utf8"
)

// MaxNameBytes bounds the client-supplied part of a stored object name.
// Most filesystems reject names over 255 bytes and the token prefix and
// page suffixes need room.
const MaxNameBytes = 200

// TruncateName shortens name to at most max bytes without splitting a UTF-8
// sequence. The extension survives when it fits.
func TruncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= max {
		ext = ""
	}
	base := name[:len(name)-len(ext)]
	return cutUTF8(base, max-len(ext)) + ext
}

func cutUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
