package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"siar-server/entities"
	"siar-server/repositories"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

type RegisterInput struct {
	Username    string `json:"nombre_usuario" binding:"required"`
	Email       string `json:"email" binding:"required"`
	FullName    string `json:"nombre_completo" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Phone       string `json:"telefono"`
	Address     string `json:"direccion"`
	City        string `json:"ciudad"`
	CountryCode string `json:"pais"`
}

type AuthUseCase struct {
	store  repositories.Store
	tokens TokenIssuer
	cost   int
}

func NewAuthUseCase(store repositories.Store, tokens TokenIssuer) *AuthUseCase {
	return &AuthUseCase{store: store, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.FullName == "" {
		return nil, fmt.Errorf("%w: nombre_usuario and nombre_completo are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must have at least 8 characters", ErrValidation)
	}
	if in.CountryCode != "" && len(in.CountryCode) != 2 {
		return nil, fmt.Errorf("%w: pais must be an ISO 3166 alpha-2 code", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		CountryCode:  strings.ToUpper(in.CountryCode),
	}
	err = uc.store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByUsername(ctx, user.Username); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if _, err := tx.Users().GetByEmail(ctx, user.Email); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password and returns a signed token.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (string, *entities.User, error) {
	user, err := uc.store.Users().GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*entities.User, error) {
	u, err := uc.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return u, nil
}
