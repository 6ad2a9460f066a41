package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ytfetch/ytfetch/internal/domain"
	"github.com/ytfetch/ytfetch/internal/faults"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("youtube_url", validateYouTubeURL)
}

// Accepted upstream URL shapes: watch pages, youtu.be short links, shorts,
// embeds, playlists, channels and handles.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/watch\?`),
	regexp.MustCompile(`^youtu\.be/[\w-]+`),
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/playlist\?`),
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/channel/[\w-]+`),
	regexp.MustCompile(`^(www\.|m\.)?youtube\.com/@[\w.-]+`),
}

// IsValidReference reports whether rawURL matches one of the accepted
// upstream URL shapes.
func IsValidReference(rawURL string) bool {
	return validate.Var(rawURL, "required,youtube_url") == nil
}

// ParseReference validates rawURL and wraps it as an immutable reference.
func ParseReference(rawURL string) (domain.VideoReference, error) {
	if err := validate.Var(rawURL, "required,youtube_url"); err != nil {
		return domain.VideoReference{}, faults.New(faults.KindInvalidInput,
			fmt.Sprintf("not a recognized YouTube URL: %q", rawURL))
	}
	return domain.NewReference(rawURL), nil
}

func validateYouTubeURL(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return false
	}

	// The scheme is optional; normalize before matching.
	stripped := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		stripped = strings.TrimPrefix(raw, u.Scheme+"://")
	}

	for _, pattern := range referencePatterns {
		if pattern.MatchString(stripped) {
			return true
		}
	}
	return false
}
