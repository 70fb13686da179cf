package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/VitaminP8/blog/models"
	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL - срок жизни выданного токена
const TokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// IssueToken подписывает HS256-токен с id и именем пользователя
func IssueToken(secret string, user *models.User) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(TokenTTL).Unix(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken проверяет подпись и срок действия и возвращает id пользователя
func ParseToken(secret, tokenStr string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	idFloat, ok := claims["user_id"].(float64)
	if !ok || idFloat <= 0 {
		return 0, ErrInvalidToken
	}

	return uint(idFloat), nil
}
