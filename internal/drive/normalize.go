package drive

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// typeByExt maps known file extensions to their coarse display category.
var typeByExt = map[string]string{
	"pdf":  "PDF",
	"zip":  "ZIP",
	"png":  "IMG",
	"jpg":  "IMG",
	"jpeg": "IMG",
	"gif":  "IMG",
	"webp": "IMG",
	"svg":  "IMG",
	"mp4":  "VIDEO",
	"webm": "VIDEO",
	"mov":  "VIDEO",
	"mp3":  "AUDIO",
	"wav":  "AUDIO",
	"txt":  "TEXT",
	"md":   "MD",
	"json": "JSON",
	"js":   "JS",
	"ts":   "TS",
	"html": "HTML",
	"css":  "CSS",
}

// Classify derives the coarse type category from key's file extension.
// Unmapped extensions fall back to the uppercased extension; extensionless
// keys fall back to "FILE".
func Classify(key string) string {
	name := Basename(key)
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "FILE"
	}
	ext := strings.ToLower(name[i+1:])
	if t, ok := typeByExt[ext]; ok {
		return t
	}
	return strings.ToUpper(ext)
}

// sizeUnits in base-1024 order. The store never needs TB granularity.
var sizeUnits = [...]string{"B", "KB", "MB", "GB"}

// FormatSize renders bytes human-readable with one decimal digit.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}

// FormatDate renders the local calendar date of t as YYYY.MM.DD.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006.01.02")
}

// EncodeKey path-escapes each segment of key, preserving the slashes.
// Empty segments survive: a key ending in "/" names a prefix-marker
// object and must keep its trailing slash on the wire.
func EncodeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// BuildFile assembles the display record for an object from its
// store-authoritative attributes. publicBase is the public download base
// URL without a trailing slash.
func BuildFile(publicBase, key string, sizeBytes int64, lastModified time.Time) File {
	return File{
		Name:      Basename(key),
		Key:       key,
		Size:      FormatSize(sizeBytes),
		SizeBytes: sizeBytes,
		Date:      FormatDate(lastModified),
		Type:      Classify(key),
		URL:       JoinURL(publicBase, key),
		IsFolder:  false,
	}
}

// JoinURL concatenates the public base URL and an encoded object key.
func JoinURL(publicBase, key string) string {
	return strings.TrimRight(publicBase, "/") + "/" + EncodeKey(key)
}
