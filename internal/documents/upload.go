package documents

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/enums"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/zip": {},
	"image/png":       {},
	"image/jpeg":      {},
	"text/plain":      {},
}

func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime_type is required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime_type invalid: %w", err)
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := allowedMimeTypes[mediaType]; !ok {
		return "", fmt.Errorf("mime_type %s is not allowed for project documents", mediaType)
	}
	return mediaType, nil
}

func buildObjectKey(projectID uuid.UUID, stage enums.ReviewStage, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("documents/%s/%s/%s/%s", projectID, stage, id, cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
