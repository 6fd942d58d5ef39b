package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DecodeDataURL decodes a base64 image sent by the browser. Everything up to the
// first comma (the data: header) is dropped; a bare base64 string is accepted too.
// The content type from the header is returned when present.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrEmptyImage
	}

	var contentType string
	if header, payload, found := strings.Cut(s, ","); found {
		s = payload
		header = strings.TrimPrefix(header, "data:")
		contentType, _, _ = strings.Cut(header, ";")
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, "", errors.New("image is not valid base64")
		}
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	return data, contentType, nil
}
