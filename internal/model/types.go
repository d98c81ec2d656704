package model

import (
	"fmt"
	"strings"
	"time"
)

// User represents an account. The ID is the login identifier (email or
// phone number) and is immutable once created.
type User struct {
	ID           string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken is one long-lived session row. A user accumulates one row
// per successful signup/signin; the token string is unique across rows.
type RefreshToken struct {
	ID        int64
	UserID    string
	Token     string
	DeviceID  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BlacklistedToken is a revoked access token. ExpiresAt mirrors the exp
// claim of the token itself, so the row can be dropped once the token
// would have expired anyway.
type BlacklistedToken struct {
	ID        int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// File is the metadata record for one uploaded file. Filename is the
// stored (disk) name; OriginalName is what the client called it.
type File struct {
	ID           int64
	UserID       string
	Filename     string
	OriginalName string
	Extension    string
	MimeType     string
	Size         int64
	UploadDate   time.Time
}

// ReadableSize renders Size as a human-readable string ("2.5 MB").
func (f *File) ReadableSize() string {
	const unit = 1024
	if f.Size == 0 {
		return "0 Byte"
	}
	if f.Size < unit {
		return fmt.Sprintf("%d Bytes", f.Size)
	}
	units := []string{"KB", "MB", "GB"}
	v := float64(f.Size)
	i := -1
	for v >= unit && i < len(units)-1 {
		v /= unit
		i++
	}
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	return s + " " + units[i]
}
