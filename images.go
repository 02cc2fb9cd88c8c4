package gitpress

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/webp"
)

const maxUploadSize = 5 << 20 // 5MB

var errTooLarge = errors.New("image is larger than 5 MB")

// imageUpload is the JSON answer to a successful upload.
type imageUpload struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

// readImage reads at most maxUploadSize bytes from src and checks that they
// decode as a supported image format.
func readImage(src io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, "", errTooLarge
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return data, format, nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No image file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": errTooLarge.Error()})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, format, err := readImage(src)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		return c.JSON(status, map[string]string{"error": "Invalid image: " + err.Error()})
	}

	url, err := a.Store.UploadImage(c.Request().Context(), file.Filename, data)
	if err != nil {
		a.log.Error().Err(err).Str("file", file.Filename).Msg("image upload failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Could not upload the image."})
	}

	a.log.Info().Str("file", file.Filename).Str("format", format).Int("bytes", len(data)).Msg("image uploaded")
	return c.JSON(http.StatusCreated, imageUpload{
		URL:      url,
		Markdown: "![" + file.Filename + "](" + url + ")",
	})
}
