package web

import (
	"encoding/base64"
	"html/template"
	"io/fs"
	"net/http"
)

// Static returns a handler that serves files from subdir of fsys once
// urlPrefix has been stripped from the request path.
func Static(fsys fs.FS, subdir, urlPrefix string) http.Handler {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("failed to create sub-filesystem: " + err.Error())
	}
	return http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))
}

// DataURI encodes data as a base64 data URI safe for use in an src attribute.
// The media type is sniffed from the content. Empty data yields an empty URI.
func DataURI(data []byte) template.URL {
	if len(data) == 0 {
		return ""
	}
	mediaType := http.DetectContentType(data)
	return template.URL("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data))
}
