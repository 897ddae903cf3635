package managers

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront-auth/internal/schemas"
	"storefront-auth/internal/utils"
)

const (
	accessTokenLifetime  = 24 * time.Hour
	refreshTokenLifetime = 7 * 24 * time.Hour
	issuer               = "storefront-auth"
)

// JWTMgr handles JWT generation, signing, and validation.
type JWTMgr interface {
	GenerateTokenPair(user *schemas.User) (string, string, error)
	GenerateAccessToken(userId int64, email, name string) (string, error)
	ValidateJWT(tokenString string) (jwt.Claims, error)
	JWTMiddleware() gin.HandlerFunc
}

// JWTManager signs tokens with an ed25519 key pair.
type JWTManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewJWTManager creates a new JWTManager with the given key pair.
func NewJWTManager(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey) JWTMgr {
	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

// NewJWTManagerFromFile loads the key pair from path, generating and
// persisting a fresh one on first start.
func NewJWTManagerFromFile(path string) (JWTMgr, error) {
	privateKey, publicKey, err := loadKeyPair(path)
	if err != nil {
		privateKey, publicKey, err = generateKeyPair(path)
		if err != nil {
			return nil, err
		}
	}

	return NewJWTManager(privateKey, publicKey), nil
}

// GenerateTokenPair issues an access and a refresh token for the user.
func (jm *JWTManager) GenerateTokenPair(user *schemas.User) (string, string, error) {
	access, err := jm.GenerateAccessToken(user.ID, user.Email, user.Name())
	if err != nil {
		return "", "", err
	}

	refreshClaims := jm.claims(user.ID, user.Email, user.Name(), refreshTokenLifetime)
	refreshClaims["refresh"] = "true"
	refresh, err := jm.sign(refreshClaims)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// GenerateAccessToken issues a short-lived access token.
func (jm *JWTManager) GenerateAccessToken(userId int64, email, name string) (string, error) {
	return jm.sign(jm.claims(userId, email, name, accessTokenLifetime))
}

func (jm *JWTManager) claims(userId int64, email, name string, lifetime time.Duration) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(lifetime).Unix(),
		"sub":   strconv.FormatInt(userId, 10),
		"email": email,
		"name":  name,
	}
}

func (jm *JWTManager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(jm.privateKey)
}

// ValidateJWT validates the given JWT and returns the claims if valid.
func (jm *JWTManager) ValidateJWT(tokenString string) (jwt.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodEdDSA.Alg() {
			return nil, fmt.Errorf("invalid signing method")
		}
		return jm.publicKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return token.Claims, nil
}

// JWTMiddleware guards routes that require an authenticated user. Valid
// claims are stored on the request context for the handlers.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.ErrUnauthorized})
			return
		}

		claims, err := jm.ValidateJWT(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.ErrUnauthorized})
			return
		}

		// Refresh tokens are not access tokens.
		if mapClaims, ok := claims.(jwt.MapClaims); ok {
			if refresh, _ := mapClaims["refresh"].(string); refresh == "true" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, &schemas.ErrorDTO{Error: schemas.ErrUnauthorized})
				return
			}
		}

		c.Set(utils.ClaimsKey.String(), claims)
		c.Next()
	}
}

// generateKeyPair generates a new key pair and saves it to a file.
func generateKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	if err := saveKeyPair(privateKey, publicKey, path); err != nil {
		return nil, nil, err
	}

	return privateKey, publicKey, nil
}

// saveKeyPair saves the key pair to the specified file.
func saveKeyPair(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, path string) error {
	keyPairBytes := append(privateKey, publicKey...)
	return os.WriteFile(path, keyPairBytes, 0600)
}

// loadKeyPair loads the key pair from the specified file.
func loadKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	keyPairBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	if len(keyPairBytes) != ed25519.PrivateKeySize+ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("invalid key pair format")
	}

	return keyPairBytes[:ed25519.PrivateKeySize], keyPairBytes[ed25519.PrivateKeySize:], nil
}
