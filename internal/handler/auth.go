package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const ownerKey = "owner_id"

// IssueToken signs an HS256 token whose subject is the owner id.
func IssueToken(secret, ownerID string, ttl time.Duration, now time.Time) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner id is required")
	}

	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token (owner_id: %s): %w", ownerID, err)
	}

	return signed, nil
}

func parseOwner(secret []byte, raw string, now func() time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

func (h *HTTPHandler) requireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		}

		ownerID, err := parseOwner(h.secret, raw, h.now)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		}

		c.Set(ownerKey, ownerID)
		return next(c)
	}
}

func ownerFrom(c echo.Context) string {
	ownerID, _ := c.Get(ownerKey).(string)
	return ownerID
}
