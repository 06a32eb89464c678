// Package artifact генерирует скачиваемые артефакты записей шаринга:
// QR-код в PNG и PDF-лист с QR-кодом для печати.
package artifact

import (
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// Параметры QR-кода.
const (
	// qrSizePx — сторона PNG в пикселях
	qrSizePx = 400
)

// Цвета QR-кода: тёмно-синие модули на белом фоне.
var (
	qrForeground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	qrBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// QRCodePNG кодирует URL в PNG-изображение QR-кода 400x400
// с максимальным уровнем коррекции ошибок.
func QRCodePNG(url string) ([]byte, error) {
	qr, err := qrcode.New(url, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}
	qr.ForegroundColor = qrForeground
	qr.BackgroundColor = qrBackground

	png, err := qr.PNG(qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования PNG: %w", err)
	}
	return png, nil
}
