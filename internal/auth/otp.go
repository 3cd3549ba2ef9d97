package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpTTL = 5 * time.Minute

var ErrCodeMismatch = errors.New("code expired or does not match")

// OTPStore keeps short-lived two-factor codes in Redis. Delivering the code
// to the user (email/SMS) is an external collaborator; the store only owns
// issue and verify.
type OTPStore struct {
	rdb *redis.Client
}

func NewOTPStore(addr, password string, db int) *OTPStore {
	return &OTPStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func otpKey(email string) string { return "otp:" + email }

// IssueCode generates a 6-digit code and stores it under the user's email
// with a fixed TTL. Re-issuing overwrites any pending code.
func (s *OTPStore) IssueCode(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.rdb.Set(ctx, otpKey(email), code, otpTTL).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// VerifyCode checks the pending code and consumes it on success.
func (s *OTPStore) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := s.rdb.Get(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeMismatch
		}
		return fmt.Errorf("read otp: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return s.rdb.Del(ctx, otpKey(email)).Err()
}

func (s *OTPStore) Close() error {
	return s.rdb.Close()
}
