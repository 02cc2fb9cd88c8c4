package content

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eringen/gitpress/ghcontents"
)

// SanitizeFilename replaces every character other than ASCII letters, digits,
// '.' and '-' with '_'.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, name)
}

// ImagePath returns the repository path an upload named name receives at
// unixMillis.
func ImagePath(unixMillis int64, name string) string {
	clean := SanitizeFilename(name)
	if clean == "" {
		clean = "image"
	}
	return imagesDir + "/" + strconv.FormatInt(unixMillis, 10) + "-" + clean
}

// UploadImage stores data under images/ with a timestamped name and returns
// its public download URL. Uploads always create a new file.
func (r *Repository) UploadImage(ctx context.Context, name string, data []byte) (string, error) {
	if err := r.cfg.Validate(); err != nil {
		return "", err
	}

	path := ImagePath(r.now().UnixMilli(), name)
	file := strings.TrimPrefix(path, imagesDir+"/")

	resp, err := r.client.Put(ctx, path, ghcontents.PutRequest{
		Message: "Upload image: " + file,
		Content: ghcontents.EncodeBytes(data),
	})
	if err != nil {
		r.log.Error().Err(err).Str("file", file).Msg("upload image rejected")
		return "", fmt.Errorf("%w: %s: %w", ErrUpload, file, err)
	}

	r.log.Info().Str("file", file).Int("bytes", len(data)).Msg("image uploaded")
	return resp.Content.DownloadURL, nil
}
