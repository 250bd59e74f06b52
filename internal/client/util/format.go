// Package util holds the small helpers shared by every Learning Hub feature.
package util

import (
	"math"
	"path"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatByteSize renders bytes in the largest unit of Bytes, KB, MB or GB that
// does not exceed the value, base 1024, rounded to two decimals.
func FormatByteSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	value := float64(bytes)
	unit := 0
	for unit < len(sizeUnits)-1 && value >= 1024 {
		value /= 1024
		unit++
	}
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit]
}

// GenericFileIcon is used for extensions missing from the icon table.
const GenericFileIcon = "fas fa-file"

var fileIcons = map[string]string{
	"pdf":  "fas fa-file-pdf text-danger",
	"doc":  "fas fa-file-word text-primary",
	"docx": "fas fa-file-word text-primary",
	"xls":  "fas fa-file-excel text-success",
	"xlsx": "fas fa-file-excel text-success",
	"csv":  "fas fa-file-csv text-success",
	"ppt":  "fas fa-file-powerpoint text-warning",
	"pptx": "fas fa-file-powerpoint text-warning",
	"txt":  "fas fa-file-alt",
	"md":   "fas fa-file-alt",
	"zip":  "fas fa-file-archive",
	"rar":  "fas fa-file-archive",
	"7z":   "fas fa-file-archive",
	"jpg":  "fas fa-file-image text-info",
	"jpeg": "fas fa-file-image text-info",
	"png":  "fas fa-file-image text-info",
	"gif":  "fas fa-file-image text-info",
	"svg":  "fas fa-file-image text-info",
	"webp": "fas fa-file-image text-info",
	"mp4":  "fas fa-file-video",
	"avi":  "fas fa-file-video",
	"mov":  "fas fa-file-video",
	"mp3":  "fas fa-file-audio",
	"wav":  "fas fa-file-audio",
	"py":   "fas fa-file-code",
	"js":   "fas fa-file-code",
	"java": "fas fa-file-code",
	"c":    "fas fa-file-code",
	"cpp":  "fas fa-file-code",
	"go":   "fas fa-file-code",
	"html": "fas fa-file-code",
	"css":  "fas fa-file-code",
}

// FileIconFor maps a file name to an icon class by its extension, ignoring case.
func FileIconFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if icon, ok := fileIcons[ext]; ok {
		return icon
	}
	return GenericFileIcon
}
