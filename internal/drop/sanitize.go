package drop

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SanitizeName normalizes an untrusted display name into a name safe
// for the storage medium. Directory components are stripped on both
// separator conventions, unsafe characters become underscores, and a
// name that sanitizes to nothing is rejected with ErrInvalidName.
func SanitizeName(raw string) (string, error) {
	name := raw
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "\x00", "")

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	// A bare run of dots or underscores is not a usable name.
	if strings.Trim(name, "._") == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// Reservation names the storage target for one upload in progress. The
// caller streams the payload to StorageKey, then registers the entry
// via Registry.AddFiles once the write completed.
type Reservation struct {
	FileID     string
	Name       string // original display name, labeling only
	StorageKey string
}

// NewReservation sanitizes the display name and reserves a fresh
// storage key. The key is a random uuid plus the sanitized extension,
// so it is never derived from attacker-controlled input alone.
func NewReservation(rawName string) (Reservation, error) {
	safe, err := SanitizeName(rawName)
	if err != nil {
		return Reservation{}, err
	}
	id := uuid.NewString()
	return Reservation{
		FileID:     id,
		Name:       rawName,
		StorageKey: id + filepath.Ext(safe),
	}, nil
}
