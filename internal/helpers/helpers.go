package helpers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	SlipFolder = "payment_slips"

	// BookingCodeSuffixMin and BookingCodeSuffixMax bound the random digits
	// appended to a booking code; the suffix is always four digits.
	BookingCodeSuffixMin = 1000
	BookingCodeSuffixMax = 9999
)

// GenerateBookingCode builds a human-readable code of the form
// BK-YYYYMMDD#### from the creation date and a uniformly random four-digit
// suffix. The random source is passed in so tests can seed it; uniqueness
// is enforced by the booking_code index, with the creation operation
// retrying on collision.
func GenerateBookingCode(t time.Time, rng *rand.Rand) string {
	suffix := BookingCodeSuffixMin + rng.Intn(BookingCodeSuffixMax-BookingCodeSuffixMin+1)
	return fmt.Sprintf("BK-%s%d", t.Format("20060102"), suffix)
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash against a plaintext password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewAccessToken signs an HS256 JWT carrying the user id, role and display
// name. Subject holds the user id.
func NewAccessToken(secret, userID, role, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies an HS256 token issued by NewAccessToken.
func ValidateToken(secret, tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// UploadSlip uploads a payment-slip image to Cloudinary and returns the
// hosted URL used as the payment's proof reference.
func UploadSlip(ctx context.Context, cld *cloudinary.Cloudinary, filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.New("slip image path is empty")
	}
	uploadResult, err := cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
		Folder: SlipFolder,
		Tags:   []string{"chaicharoen-slip"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload slip %s: %v", filePath, err)
	}
	return uploadResult.SecureURL, nil
}

func StringTrim(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"'")
}
