package app

import (
	"log"
	"mime"
)

func init() {
	ensureMimeType(".css", "text/css; charset=utf-8")
	ensureMimeType(".svg", "image/svg+xml")
	ensureMimeType(".pdf", "application/pdf")
	ensureMimeType(".webp", "image/webp")
	ensureMimeType(".dwg", "image/vnd.dwg")
	ensureMimeType(".eml", "message/rfc822")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
