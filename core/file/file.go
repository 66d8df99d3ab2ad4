// Package file models task and class session attachments.
//
// An Attachment is either a LegacyFile (a bare filename kept from older records, no content)
// or a StoredFile (name, MIME type and the content inlined as a base64 data URL).
package file

import (
	"mime"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

const fallbackMediaType = "application/octet-stream"

var (
	ErrNoContent      = errors.New("attachment has no retrievable content")
	ErrInvalidDataURL = errors.New("invalid data URL")
)

// Attachment is a sealed variant: only LegacyFile and StoredFile implement it.
type Attachment interface {
	Name() string
	// Content returns the decoded bytes and their MIME type.
	Content() ([]byte, string, error)

	isAttachment()
}

// LegacyFile is a plain filename, as stored by older versions of the portal.
type LegacyFile string

func (f LegacyFile) Name() string                     { return string(f) }
func (f LegacyFile) Content() ([]byte, string, error) { return nil, "", ErrNoContent }
func (LegacyFile) isAttachment()                      {}

// StoredFile is a self-contained file: its content is a data URL.
type StoredFile struct {
	FileName string `json:"name" validate:"notblank"`
	Type     string `json:"type"`
	Data     string `json:"content" validate:"required"`
}

// NewStoredFile encodes data as a data URL. The MIME type is sniffed when mediaType is empty.
func NewStoredFile(name, mediaType string, data []byte) StoredFile {
	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	return StoredFile{
		FileName: name,
		Type:     mediaType,
		Data:     EncodeDataURL(mediaType, data),
	}
}

func (f StoredFile) Name() string { return f.FileName }

func (f StoredFile) Content() ([]byte, string, error) {
	ct, data, err := DecodeDataURL(f.Data)
	if err != nil {
		return nil, "", errors.Wrapf(err, "decoding %q", f.FileName)
	}
	return data, ct, nil
}

func (StoredFile) isAttachment() {}

// Size returns the decoded size of the content, or -1 if it cannot be decoded.
func (f StoredFile) Size() int {
	data, _, err := f.Content()
	if err != nil {
		return -1
	}
	return len(data)
}

// Match calls exactly one of onLegacy or onStored depending on the attachment's variant.
func Match(a Attachment, onLegacy func(LegacyFile), onStored func(StoredFile)) {
	switch att := a.(type) {
	case LegacyFile:
		onLegacy(att)
	case StoredFile:
		onStored(att)
	case *StoredFile:
		onStored(*att)
	}
}

// EncodeDataURL returns data as a base64 data URL. Media type parameters (eg. charset) are kept;
// an unparsable media type is replaced by application/octet-stream.
func EncodeDataURL(mediaType string, data []byte) string {
	mt, params, err := mime.ParseMediaType(mediaType)
	if err != nil || strings.Count(mt, "/") != 1 {
		mt, params = fallbackMediaType, nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}
	return dataurl.New(data, mt, pairs...).String()
}

// DecodeDataURL parses a data URL, base64 or percent-encoded, and returns its content type
// (without parameters) and decoded data. A data URL without media type is text/plain (RFC 2397).
func DecodeDataURL(s string) (contentType string, data []byte, err error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return "", nil, errors.Wrap(ErrInvalidDataURL, err.Error())
	}
	return du.ContentType(), du.Data, nil
}

// Check verifies the file has a name and decodable content no larger than maxSize bytes (0 = no limit).
func (f StoredFile) Check(maxSize int64) error {
	if strings.TrimSpace(f.FileName) == "" {
		return errors.New("file name cannot be blank")
	}
	data, _, err := f.Content()
	if err != nil {
		return err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return errors.Errorf("%q exceeds the maximum size of %d bytes", f.FileName, maxSize)
	}
	return nil
}
