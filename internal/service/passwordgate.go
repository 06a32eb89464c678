// Пакет service — бизнес-логика QR Share.
// passwordgate.go — отпечаток пароля и проверка доступа.
//
// Отпечаток — одиночный быстрый SHA-256 без соли и без итераций.
// Это осознанно слабая схема: она отсекает случайных посетителей,
// но не защищает от offline-перебора при утечке отпечатка.
// Здесь это гейт просмотра, а не система аутентификации;
// усиливать схему значит сломать совместимость с уже созданными записями.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint возвращает SHA-256 hex-отпечаток пароля.
// Пароль предварительно очищается от краевых пробелов;
// отпечаток считается по UTF-8 байтам результата.
func Fingerprint(password string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(password)))
	return hex.EncodeToString(sum[:])
}

// Matches сообщает, соответствует ли кандидат сохранённому отпечатку.
// Сравнение не constant-time: для гейта просмотра это допустимо.
func Matches(candidate, storedFingerprint string) bool {
	return Fingerprint(candidate) == storedFingerprint
}
