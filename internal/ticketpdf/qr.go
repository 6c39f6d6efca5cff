package ticketpdf

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrPixels = 256

// VerifyURL is the payload encoded in the ticket's scannable code.
func VerifyURL(baseURL, ticketID string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + ticketID
}

func encodeQR(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	if len(png) == 0 {
		return nil, ErrEmptyImage
	}
	return png, nil
}
