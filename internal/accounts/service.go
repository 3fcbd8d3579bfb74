package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// Claims are the JWT claims issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	DoctorID string `json:"doctor_id,omitempty"`
}

// Service handles registration, authentication, and role management.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
	logger   *logging.Logger
}

// NewService constructs an accounts service.
func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration, logger *logging.Logger) *Service {
	if repo == nil {
		panic("accounts: repository required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, secret: []byte(jwtSecret), tokenTTL: tokenTTL, logger: logger}
}

// Register creates a patient account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, &User{
		Phone:        req.Phone,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         RolePatient,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "phone", u.Phone, "role", u.Role)
	return u, nil
}

// Login verifies credentials and returns a signed token. Unknown phone and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, *User, error) {
	u, err := s.repo.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ElevateToDoctor promotes a patient account and ties it to a doctor profile.
// Admin-only; the handler enforces the role.
func (s *Service) ElevateToDoctor(ctx context.Context, phone, doctorID string) (*User, error) {
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	u.Role = RoleDoctor
	u.DoctorID = doctorID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("account elevated to doctor", "phone", phone, "doctor_id", doctorID)
	return u, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Phone,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Role:     u.Role,
		FullName: u.FullName,
		DoctorID: u.DoctorID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("accounts: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}
