package file

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownAttachment = errors.New("attachment must be a filename or a {name, type, content} object")

// Attachments is a list of attachments of either variant.
// On the wire legacy files are JSON strings and stored files are objects.
type Attachments []Attachment

func (as Attachments) MarshalJSON() ([]byte, error) {
	raw := make([]interface{}, 0, len(as))
	for _, a := range as {
		Match(a,
			func(f LegacyFile) { raw = append(raw, string(f)) },
			func(f StoredFile) { raw = append(raw, f) },
		)
	}
	return json.Marshal(raw)
}

func (as *Attachments) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*as = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding attachments")
	}

	list := make(Attachments, 0, len(raw))
	for i, r := range raw {
		a, err := decodeAttachment(r)
		if err != nil {
			return errors.Wrapf(err, "attachments[%d]", i)
		}
		list = append(list, a)
	}
	*as = list
	return nil
}

func decodeAttachment(r json.RawMessage) (Attachment, error) {
	r = bytes.TrimSpace(r)
	if len(r) == 0 {
		return nil, ErrUnknownAttachment
	}
	switch r[0] {
	case '"':
		var name string
		if err := json.Unmarshal(r, &name); err != nil {
			return nil, err
		}
		return LegacyFile(name), nil
	case '{':
		var f StoredFile
		if err := json.Unmarshal(r, &f); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, ErrUnknownAttachment
	}
}

// Value stores the list as a JSON document.
func (as Attachments) Value() (driver.Value, error) {
	if as == nil {
		return []byte("[]"), nil
	}
	return as.MarshalJSON()
}

func (as *Attachments) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*as = nil
		return nil
	case []byte:
		return as.UnmarshalJSON(v)
	case string:
		return as.UnmarshalJSON([]byte(v))
	default:
		return errors.Errorf("file.Attachments: cannot scan %T", src)
	}
}

// Stored returns the stored files only.
func (as Attachments) Stored() []StoredFile {
	files := make([]StoredFile, 0, len(as))
	for _, a := range as {
		Match(a, func(LegacyFile) {}, func(f StoredFile) { files = append(files, f) })
	}
	return files
}

// Names returns the name of every attachment, in order.
func (as Attachments) Names() []string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		names = append(names, a.Name())
	}
	return names
}

// StoredFiles is a list of stored files persisted as a JSON document.
type StoredFiles []StoredFile

func (fs StoredFiles) Value() (driver.Value, error) {
	if fs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]StoredFile(fs))
}

func (fs *StoredFiles) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*fs = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("file.StoredFiles: cannot scan %T", src)
	}
	return json.Unmarshal(data, (*[]StoredFile)(fs))
}

// SplitLegacy splits a comma-joined legacy filename list.
func SplitLegacy(joined string) []LegacyFile {
	var files []LegacyFile
	for _, name := range strings.Split(joined, ",") {
		if name = strings.TrimSpace(name); name != "" {
			files = append(files, LegacyFile(name))
		}
	}
	return files
}

// Check verifies that every stored file has a name and decodable content no larger than maxSize bytes (0 = no limit).
func (as Attachments) Check(maxSize int64) error {
	for i, a := range as {
		var err error
		Match(a,
			func(f LegacyFile) {
				if strings.TrimSpace(string(f)) == "" {
					err = errors.New("filename cannot be blank")
				}
			},
			func(f StoredFile) { err = f.Check(maxSize) },
		)
		if err != nil {
			return errors.Wrapf(err, "attachments[%d]", i)
		}
	}
	return nil
}
