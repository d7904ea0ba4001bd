package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	JWTSecretKey      string
	JWTExpirationTime int64
)

func InitJWT() {
	// For tests, use default values if environment variables aren't set
	if os.Getenv("GO_ENV") == "test" {
		if os.Getenv("JWT_SECRET_KEY") == "" {
			os.Setenv("JWT_SECRET_KEY", "test_secret_key")
		}
	}

	JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if JWTSecretKey == "" {
		log.Fatal("JWT Secret Key not set")
	}

	JWTExpirationTime = int64(GetEnvAsInt("JWT_EXPIRATION_TIME", 2592000))
}

// GenerateSessionToken mints the signed session token carrying the owner
// and device identity.
func GenerateSessionToken(ownerID, deviceID, sessionID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(JWTExpirationTime) * time.Second)
	claims := jwt.MapClaims{
		"owner_id":   ownerID,
		"device_id":  deviceID,
		"session_id": sessionID,
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(JWTSecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates the token and returns owner and device ids.
func ParseSessionToken(tokenString string) (ownerID, deviceID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	ownerID, _ = claims["owner_id"].(string)
	deviceID, _ = claims["device_id"].(string)
	if ownerID == "" || deviceID == "" {
		return "", "", errors.New("invalid token claims")
	}
	return ownerID, deviceID, nil
}
