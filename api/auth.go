package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpDigits      = 6
	maxOTPAttempts = 5
	avatarEndpoint = "https://api.dicebear.com/5.x/initials/svg"
)

type signupInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	OTP             string `json:"otp"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *user     `json:"user"`
}

type authService struct {
	users        userStore
	otps         otpStore
	sender       otpSender
	tokens       *tokenManager
	otpTTL       time.Duration
	passwordCost int
	logger       *zap.Logger
	now          func() time.Time
	generateCode func() (string, error)
}

func newAuthService(users userStore, otps otpStore, sender otpSender, tokens *tokenManager, otpTTL time.Duration, logger *zap.Logger) *authService {
	return &authService{
		users:        users,
		otps:         otps,
		sender:       sender,
		tokens:       tokens,
		otpTTL:       otpTTL,
		passwordCost: bcrypt.DefaultCost,
		logger:       logger,
		now:          time.Now,
		generateCode: generateOTP,
	}
}

func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requestOTP replaces any pending code for email and mails the new one.
func (s *authService) requestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	v := newValidator()
	v.checkEmail(email)
	if v.hasErrors() {
		return v.toError()
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	now := s.now()
	rec := otpRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL),
	}
	if err := s.otps.set(ctx, rec); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.sendOTP(email, code, s.otpTTL); err != nil {
		s.logger.Error("otp delivery failed", zap.String("email", email), zap.Error(err))
		if derr := s.otps.delete(ctx, email); derr != nil {
			s.logger.Warn("discard undelivered otp", zap.String("email", email), zap.Error(derr))
		}
		return newServiceError(errDelivery, "failed to send OTP email")
	}
	s.logger.Info("otp sent", zap.String("email", email))
	return nil
}

func (s *authService) signup(ctx context.Context, in signupInput) (*user, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	v := newValidator()
	v.checkCond(in.FirstName != "", "firstName", "must be provided")
	v.checkCond(in.LastName != "", "lastName", "must be provided")
	v.checkEmail(in.Email)
	v.checkPassword(in.Password)
	v.checkCond(in.ConfirmPassword != "", "confirmPassword", "must be provided")
	v.checkCond(strings.TrimSpace(in.OTP) != "", "otp", "must be provided")
	if v.hasErrors() {
		return nil, v.toError()
	}
	if in.Password != in.ConfirmPassword {
		return nil, newServiceError(errValidation, "Password and Confirm Password do not match")
	}

	_, err := s.users.getUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, newServiceError(errValidation, "User already exists. Please sign in to continue")
	case !errors.Is(err, errRecordNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	rec, err := s.otps.get(ctx, in.Email)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, newServiceError(errValidation, "The OTP is not valid")
		}
		return nil, fmt.Errorf("lookup otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(strings.TrimSpace(in.OTP))) != 1 {
		s.otpFailed(ctx, *rec)
		return nil, newServiceError(errValidation, "The OTP is not valid")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &user{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Image:        avatarURL(in.FirstName, in.LastName),
	}
	if err := s.users.insertUser(ctx, u); err != nil {
		if errors.Is(err, errDuplicateEmail) {
			return nil, newServiceError(errValidation, "User already exists. Please sign in to continue")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := s.otps.delete(ctx, in.Email); err != nil {
		s.logger.Warn("consume otp", zap.String("email", in.Email), zap.Error(err))
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// otpFailed discards the code once it has been guessed wrong maxOTPAttempts times.
func (s *authService) otpFailed(ctx context.Context, rec otpRecord) {
	n, err := s.otps.recordFailure(ctx, rec)
	if err != nil {
		if !errors.Is(err, errRecordNotFound) {
			s.logger.Warn("count otp failure", zap.String("email", rec.Email), zap.Error(err))
		}
		return
	}
	if n < maxOTPAttempts {
		return
	}
	s.logger.Info("otp discarded after too many attempts", zap.String("email", rec.Email))
	if err := s.otps.delete(ctx, rec.Email); err != nil {
		s.logger.Warn("discard otp", zap.String("email", rec.Email), zap.Error(err))
	}
}

func (s *authService) login(ctx context.Context, in loginInput) (*loginResult, error) {
	email := normalizeEmail(in.Email)
	v := newValidator()
	v.checkCond(email != "", "email", "must be provided")
	v.checkCond(in.Password != "", "password", "must be provided")
	if v.hasErrors() {
		return nil, v.toError()
	}

	u, err := s.users.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, newServiceError(errAuth, "User is not registered with us. Please sign up to continue")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, newServiceError(errAuth, "Password is incorrect")
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	token, expiresAt, err := s.tokens.issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &loginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// userFromToken resolves a bearer token to the user it was issued for.
func (s *authService) userFromToken(ctx context.Context, token string) (*user, error) {
	claims, err := s.tokens.parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.getUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, newServiceError(errAuth, "user no longer exists")
		}
		return nil, err
	}
	return u, nil
}

func avatarURL(firstName, lastName string) string {
	q := url.Values{}
	q.Set("seed", firstName+" "+lastName)
	return avatarEndpoint + "?" + q.Encode()
}
