// internal/services/auth_service.go
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/prompteconomy/backend/internal/config"
	"github.com/prompteconomy/backend/internal/models"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/utils"
)

// challengeTemplate is the exact text wallets are asked to sign. The server
// rebuilds it from the stored nonce during login, so a signature over any
// other text never verifies.
const challengeTemplate = "Sign this message to authenticate with Prompt Economy: %s"

type AuthService struct {
	users repository.UserRepository
	cfg   *config.Config
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: users, cfg: cfg}
}

type ChallengeResponse struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	IsNewUser bool   `json:"is_new_user"`
}

type RegisterRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,eth_addr"`
	Username      string `json:"username" validate:"required,username"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,strong_password"`
	FullName      string `json:"full_name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type WalletLoginRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,eth_addr"`
	Message       string `json:"message" validate:"required"`
	Signature     string `json:"signature" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthResponse struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

// IssueChallenge returns the nonce and full message a wallet must sign. For
// unregistered wallets the nonce is ephemeral and never stored, so the
// challenge cannot authenticate anyone until the wallet registers.
func (s *AuthService) IssueChallenge(ctx context.Context, walletAddress string) (*ChallengeResponse, error) {
	if !common.IsHexAddress(walletAddress) {
		return nil, ValidationError("invalid wallet address")
	}

	user, err := s.users.ByWallet(ctx, strings.ToLower(walletAddress))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			nonce, genErr := utils.GenerateNonce()
			if genErr != nil {
				return nil, InternalError("generate nonce", genErr)
			}
			return &ChallengeResponse{
				Nonce:     nonce,
				Message:   fmt.Sprintf(challengeTemplate, nonce),
				IsNewUser: true,
			}, nil
		}
		return nil, InternalError("look up wallet", err)
	}

	return &ChallengeResponse{
		Nonce:     user.Nonce,
		Message:   fmt.Sprintf(challengeTemplate, user.Nonce),
		IsNewUser: false,
	}, nil
}

// WalletLogin verifies a signed challenge and rotates the nonce. The rotation
// is a compare-and-swap against the nonce the signature was checked with, so
// a captured signature can be redeemed at most once even under concurrent
// replay attempts.
func (s *AuthService) WalletLogin(ctx context.Context, req WalletLoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid wallet login request")
	}

	user, err := s.users.ByWallet(ctx, strings.ToLower(req.WalletAddress))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("wallet not registered, please register first")
		}
		return nil, InternalError("look up wallet", err)
	}

	if !user.IsActive() {
		return nil, AuthError("account is deactivated or banned")
	}

	expected := fmt.Sprintf(challengeTemplate, user.Nonce)
	if req.Message != expected {
		return nil, AuthError("challenge message does not match the issued nonce")
	}

	recovered, err := recoverSigner(req.Message, req.Signature)
	if err != nil {
		return nil, AuthError("signature verification failed")
	}
	if !strings.EqualFold(recovered, user.WalletAddress) {
		return nil, AuthError("signature was not produced by this wallet")
	}

	nextNonce, err := utils.GenerateNonce()
	if err != nil {
		return nil, InternalError("generate nonce", err)
	}

	rotated, err := s.users.RotateNonce(ctx, user.ID, user.Nonce, nextNonce, time.Now())
	if err != nil {
		return nil, InternalError("rotate nonce", err)
	}
	if !rotated {
		return nil, AuthError("challenge already consumed, request a new nonce")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: *tokens}, nil
}

// recoverSigner derives the address that produced an EIP-191 personal_sign
// signature over message. MetaMask emits V as 27/28 while go-ethereum expects
// 0/1, hence the adjustment.
func recoverSigner(message, signature string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid registration request")
	}

	wallet := strings.ToLower(req.WalletAddress)
	email := strings.ToLower(req.Email)

	if _, err := s.users.ByWallet(ctx, wallet); err == nil {
		return nil, ConflictError("wallet address already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, InternalError("look up wallet", err)
	}

	if _, err := s.users.ByEmail(ctx, email); err == nil {
		return nil, ConflictError("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, InternalError("look up email", err)
	}

	nonce, err := utils.GenerateNonce()
	if err != nil {
		return nil, InternalError("generate nonce", err)
	}

	user := &models.User{
		WalletAddress: wallet,
		Username:      req.Username,
		Email:         email,
		Nonce:         nonce,
		Role:          models.UserRoleUser,
		Status:        models.UserStatusActive,
		FullName:      req.FullName,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, InternalError("hash password", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ConflictError("wallet, email, or username already registered")
		}
		return nil, InternalError("create user", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: *tokens}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, ValidationError("invalid login request")
	}

	user, err := s.users.ByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, AuthError("invalid email or password")
		}
		return nil, InternalError("look up email", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, AuthError("invalid email or password")
	}

	if !user.IsActive() {
		return nil, AuthError("account is deactivated or banned")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, InternalError("update last login", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: *tokens}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, AuthError("invalid refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, AuthError("invalid refresh token")
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, AuthError("user no longer exists")
		}
		return nil, InternalError("look up user", err)
	}

	if !user.IsActive() {
		return nil, AuthError("account is deactivated or banned")
	}

	return s.issueTokens(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundError("user not found")
		}
		return nil, InternalError("look up user", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateJWT(user.ID, user.Username, user.WalletAddress, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, InternalError("sign access token", err)
	}

	refresh, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, InternalError("sign refresh token", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
