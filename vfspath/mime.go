package vfspath

import "strings"

// mimeByExtension is a fixed, case-insensitive extension->MIME table.
// Deliberately not the OS mime database (which mime.TypeByExtension
// falls back to): the framework needs deterministic results across
// platforms, so the table is small and explicit rather than
// system-derived.
var mimeByExtension = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".csv":  "text/csv",
	".xml":  "application/xml",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".js":   "application/javascript",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".go":   "text/x-go",
	".py":   "text/x-python",
	".sh":   "application/x-sh",
}

// MIMEType derives the MIME type for filename from its extension using
// the fixed table above. It returns ("", false) for unknown or absent
// extensions.
func MIMEType(filename string) (string, bool) {
	ext := extensionOf(filename)
	if ext == "" {
		return "", false
	}
	t, ok := mimeByExtension[strings.ToLower(ext)]
	return t, ok
}

func extensionOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx <= 0 || idx == len(filename)-1 {
		// no dot, leading dot (hidden file with no extension), or
		// trailing dot: none count as an extension.
		return ""
	}
	return filename[idx:]
}
