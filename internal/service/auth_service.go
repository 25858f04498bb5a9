package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
	"go-stock-engine/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrOperatorInactive   = errors.New("operator account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*model.Operator, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
	ChangePassword(ctx context.Context, operatorID uuid.UUID, oldPassword, newPassword string) error
	EnsureOperator(ctx context.Context, username, password, fullName, role string) (*model.Operator, bool, error)
}

type LoginResponse struct {
	Token    string                 `json:"token"`
	Operator model.OperatorResponse `json:"operator"`
}

type authService struct {
	operators repository.OperatorRepository
	tokens    *jwt.Manager
	log       *zap.Logger
}

func NewAuthService(operators repository.OperatorRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		operators: operators,
		tokens:    tokens,
		log:       log,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	op, err := s.operators.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !op.IsActive {
		return nil, ErrOperatorInactive
	}
	if !op.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session: a new version invalidates every earlier token.
	version := uuid.New().String()
	if err := s.operators.UpdateTokenVersion(ctx, op.ID, version); err != nil {
		return nil, fmt.Errorf("rotate token version: %w", err)
	}
	op.TokenVersion = version

	token, err := s.tokens.GenerateToken(op.ID, op.Username, op.FullName, op.Role, op.Privileges(), version)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("operator logged in", zap.String("operator_id", op.ID.String()), zap.String("username", op.Username))
	return &LoginResponse{Token: token, Operator: op.ToResponse()}, nil
}

// ValidateToken checks the signature, then the operator's current state.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.Operator, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	op, err := s.operators.FindByID(ctx, claims.OperatorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load operator: %w", err)
	}
	if !op.IsActive {
		return nil, ErrOperatorInactive
	}
	if op.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return op, nil
}

// ResetPassword sets a new password and ends the operator's current session.
func (s *authService) ResetPassword(ctx context.Context, username, newPassword string) error {
	op, err := s.operators.FindByUsername(ctx, username)
	if err != nil {
		return ErrOperatorNotFound
	}
	return s.replacePassword(ctx, op, newPassword)
}

func (s *authService) ChangePassword(ctx context.Context, operatorID uuid.UUID, oldPassword, newPassword string) error {
	op, err := s.operators.FindByID(ctx, operatorID)
	if err != nil {
		return ErrOperatorNotFound
	}
	if !op.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	return s.replacePassword(ctx, op, newPassword)
}

func (s *authService) replacePassword(ctx context.Context, op *model.Operator, newPassword string) error {
	if err := op.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.operators.UpdatePassword(ctx, op.ID, op.Password); err != nil {
		return err
	}
	return s.operators.UpdateTokenVersion(ctx, op.ID, uuid.New().String())
}

// EnsureOperator creates the operator unless one with the username exists.
// The boolean reports whether a new row was written.
func (s *authService) EnsureOperator(ctx context.Context, username, password, fullName, role string) (*model.Operator, bool, error) {
	existing, err := s.operators.FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if !model.ValidRole(role) {
		return nil, false, fmt.Errorf("unknown role %q", role)
	}

	op := &model.Operator{
		Username: username,
		FullName: fullName,
		Role:     role,
		IsActive: true,
	}
	if err := op.SetPassword(password); err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.operators.Create(ctx, op); err != nil {
		return nil, false, err
	}
	s.log.Info("operator created", zap.String("username", username), zap.String("role", role))
	return op, true, nil
}
