package helpers

import (
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	// Registered image decoders for ImageDimensions
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	log "github.com/sirupsen/logrus"
	"lukechampine.com/blake3"
)

// FileFingerprint returns the uppercase BLAKE3 hex digest of a file. Used to
// spot the same photo being picked twice under different names.
func FileFingerprint(filepath string) (string, error) {
	file, err := os.ReadFile(filepath)
	if err != nil {
		return "", fmt.Errorf("error reading file %s for fingerprint: %w", filepath, err)
	}
	sum := blake3.Sum256(file)
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// SniffContentType detects a file's content type from its first 512 bytes,
// the way the HTTP content sniffer does it. The file extension is never
// consulted.
func SniffContentType(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", fmt.Errorf("error opening file %s for sniffing: %w", filepath, err)
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error reading file %s for sniffing: %w", filepath, err)
	}
	return http.DetectContentType(buf[:n]), nil
}

// IsSupportedImage reports whether a sniffed content type is one the backend
// accepts for ingredient photos.
func IsSupportedImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

// ImageDimensions decodes just enough of an image file to report its pixel
// size. JPEG, PNG and WebP are supported via the registered decoders.
func ImageDimensions(filepath string) (int, int, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return 0, 0, fmt.Errorf("error opening image %s: %w", filepath, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("error decoding image header of %s: %w", filepath, err)
	}
	return cfg.Width, cfg.Height, nil
}

// CounterWriter tracks the number of bytes written to the underlying writer.
// It's used to display export progress.
type CounterWriter struct {
	Total  uint64
	Writer io.Writer
}

// Write implements the io.Writer interface for CounterWriter.
func (cw *CounterWriter) Write(p []byte) (int, error) {
	n, err := cw.Writer.Write(p)
	cw.Total += uint64(n)
	return n, err
}

// BytesToSize converts a byte count into a human-readable string (KB, MB, GB, etc.).
func BytesToSize(bytes uint64) string {
	sizes := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes == 0 {
		return "0B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1 // Handle very large sizes
	}
	return fmt.Sprintf("%.2f%s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}

// ConvertToSlug converts a string into a filesystem-friendly slug.
func ConvertToSlug(str string) string {
	str = strings.ReplaceAll(str, " ", "_")
	str = strings.ReplaceAll(str, ":", "-")
	str = strings.ToLower(str)

	allowedChars := "0123456789abcdefghijklmnopqrstuvwxyz._-"

	var filteredDescription strings.Builder
	for _, ch := range str {
		if strings.ContainsRune(allowedChars, ch) {
			filteredDescription.WriteRune(ch)
		}
	}
	str = filteredDescription.String()

	// Simplify repeated separators
	for strings.Contains(str, "--") {
		str = strings.ReplaceAll(str, "--", "-")
	}
	for strings.Contains(str, "__") {
		str = strings.ReplaceAll(str, "__", "_")
	}
	str = strings.ReplaceAll(str, "-_", "-")
	str = strings.ReplaceAll(str, "_-", "-")

	// Remove leading/trailing separators
	str = strings.Trim(str, "_-")

	return str
}

// CheckAndMakeDir ensures a directory exists, creating it if necessary.
// Uses standard directory permissions (0700).
func CheckAndMakeDir(dir string) bool {
	// Use MkdirAll to create parent directories if they don't exist
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		log.WithError(err).Errorf("Error creating directory %s", dir)
		return false
	}
	return true
}
