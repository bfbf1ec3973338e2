// Package qrpage renders QR codes as PNG images and the HTML pages that
// show them to the person linking a device.
package qrpage

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// Template names.
	QRTemplate            = "qr.html"
	WaitingTemplate       = "waiting.html"
	AuthenticatedTemplate = "authenticated.html"
	ErrorTemplate         = "error.html"

	// QRRefreshSeconds is the reload interval of the QR page.
	QRRefreshSeconds = 5
	// WaitingRefreshSeconds is the reload interval while no QR exists yet.
	WaitingRefreshSeconds = 3

	imageSize = 256
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("qrpage").ParseFS(templateFS, "templates/*.html"))
}

// Page is the data rendered by every template.
type Page struct {
	PhoneNumber string
	QRImage     template.URL
	Refresh     int
	Message     string
}

// PNG encodes a QR payload as a PNG image.
func PNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	return png, nil
}

// DataURL encodes a QR payload as a base64 PNG data URL.
func DataURL(payload string) (string, error) {
	png, err := PNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
