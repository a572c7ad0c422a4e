// Package secret реализует проверку общих секретов: токена запуска рассылки
// и подписи входящих webhook-запросов.
package secret

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// GetHash возвращает bcrypt-хэш секрета. Хэш можно указать в конфиге вместо открытого значения.
func GetHash(value string) (string, error) {
	const op = "secret.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Match сообщает, совпадает ли предъявленный секрет с настроенным.
// Настроенное значение может быть bcrypt-хэшем или открытой строкой.
// Пустой настроенный секрет не совпадает ни с чем.
func Match(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Sign возвращает base64 HMAC-SHA256 подпись payload.
func Sign(key string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет base64 HMAC-SHA256 подпись тела запроса.
func VerifySignature(key string, payload []byte, signature string) bool {
	if key == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(key, payload)), []byte(signature))
}
