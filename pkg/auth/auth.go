package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/database"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LineIssuer is the iss claim of LINE Login ID tokens
const LineIssuer = "https://access.line.me"

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the session JWT claims
type Claims struct {
	StaffID int    `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// LineClaims represents the claims of a LINE Login ID token
type LineClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// LineIdentity is the verified LINE user behind an ID token
type LineIdentity struct {
	UserID      string
	DisplayName string
}

// Authenticator issues and verifies session tokens and LINE ID tokens
type Authenticator struct {
	secret            []byte
	ttl               time.Duration
	lineChannelID     string
	lineChannelSecret []byte
}

// NewAuthenticator creates an authenticator; ttl <= 0 means 24 hours
func NewAuthenticator(secret string, ttl time.Duration, lineChannelID, lineChannelSecret string) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		secret:            []byte(secret),
		ttl:               ttl,
		lineChannelID:     lineChannelID,
		lineChannelSecret: []byte(lineChannelSecret),
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new session JWT for a staff member
func (a *Authenticator) CreateToken(staffID int, role models.Role) (string, error) {
	claims := &Claims{
		StaffID: staffID,
		Role:    string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(staffID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.secret)
}

// VerifyToken verifies a session JWT
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.keyFunc(a.secret))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := models.ParseRole(claims.Role); err != nil {
		return nil, err
	}

	return claims, nil
}

// VerifyIDToken checks a LINE Login ID token, which LINE signs with HS256
// using the channel secret
func (a *Authenticator) VerifyIDToken(idToken string) (*LineIdentity, error) {
	if len(a.lineChannelSecret) == 0 {
		return nil, errors.New("line login is not configured")
	}

	claims := &LineClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, a.keyFunc(a.lineChannelSecret))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid id token")
	}
	if !claims.VerifyIssuer(LineIssuer, true) {
		return nil, errors.New("unexpected id token issuer")
	}
	if !claims.VerifyAudience(a.lineChannelID, true) {
		return nil, errors.New("id token was issued for another channel")
	}
	if claims.Subject == "" {
		return nil, errors.New("id token has no subject")
	}

	return &LineIdentity{UserID: claims.Subject, DisplayName: claims.Name}, nil
}

func (a *Authenticator) keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// EnsureCoordinatorExists checks if any coordinator exists, if not create one
// from the configured credentials
func EnsureCoordinatorExists(db *gorm.DB, username, password string, staffID int) error {
	var count int64
	if err := db.Model(&database.Coordinator{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return db.Create(&database.Coordinator{
		Username:     username,
		PasswordHash: hash,
		StaffID:      staffID,
	}).Error
}

// AuthenticateCoordinator checks coordinator credentials
func AuthenticateCoordinator(db *gorm.DB, username, password string) (*database.Coordinator, error) {
	var user database.Coordinator
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, errors.New("invalid credentials")
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, errors.New("invalid credentials")
	}
	return &user, nil
}
