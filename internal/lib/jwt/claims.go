// Package jwt реализует генерацию и парсинг JWT токенов провайдера идентификации.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/subtrack/internal/models"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(identity models.Identity) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// Claims описывает данные пользователя, хранящиеся в JWT.
// Идентификатор пользователя у провайдера передаётся в стандартном поле sub.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity возвращает данные пользователя из токена.
func (c *Claims) Identity() models.Identity {
	return models.Identity{
		ExternalID: c.Subject,
		Email:      c.Email,
		Name:       c.Name,
	}
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
