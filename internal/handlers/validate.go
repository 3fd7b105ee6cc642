package handlers

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits for user, category and link fields.
const (
	maxEmailLen        = 254
	minPasswordLen     = 8
	maxPasswordLen     = 72 // bcrypt ignores bytes past 72
	maxFullNameLen     = 100
	maxCategoryNameLen = 100
	maxTitleLen        = 300
	maxURLLen          = 2048
	maxDescriptionLen  = 2000
	maxPlatformLen     = 50
	maxSearchLen       = 200
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// validateEmail checks an already-normalized email address.
func validateEmail(email string) string {
	if email == "" {
		return "Email is required."
	}
	if len(email) > maxEmailLen {
		return "Email is too long."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "Email is not a valid address."
	}
	return ""
}

// validatePassword checks password length in bytes.
func validatePassword(password string) string {
	if len(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return ""
}

func validateFullName(name string) string {
	if utf8.RuneCountInString(name) > maxFullNameLen {
		return "Full name is too long (max 100 characters)."
	}
	return ""
}

// validateCategoryName checks a trimmed category name.
func validateCategoryName(name string) string {
	if name == "" {
		return "Category name is required."
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "Category name is too long (max 100 characters)."
	}
	return ""
}

// validateColor checks a category color. Empty is allowed; callers apply
// the default or keep the current color.
func validateColor(color string) string {
	if color != "" && !hexColor.MatchString(color) {
		return "Color must be a hex value like #6366f1."
	}
	return ""
}

// validateURL accepts absolute http and https URLs with a host.
func validateURL(raw string) string {
	if raw == "" {
		return "URL is required."
	}
	if len(raw) > maxURLLen {
		return "URL is too long."
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "URL must be an absolute http or https address."
	}
	return ""
}

// validateLink checks trimmed link fields. Only non-nil fields are
// checked, so the same function serves create and partial update.
func validateLink(title, rawURL, description, platform *string) string {
	if rawURL != nil {
		if msg := validateURL(*rawURL); msg != "" {
			return msg
		}
	}
	if title != nil {
		if *title == "" {
			return "Title is required."
		}
		if utf8.RuneCountInString(*title) > maxTitleLen {
			return "Title is too long (max 300 characters)."
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		return "Description is too long (max 2,000 characters)."
	}
	if platform != nil && utf8.RuneCountInString(*platform) > maxPlatformLen {
		return "Platform is too long (max 50 characters)."
	}
	return ""
}

// trimmed returns a pointer to the trimmed value, or nil for nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
