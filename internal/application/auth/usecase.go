package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/pkg/config"
	"github.com/insorpa/dte-api/pkg/jwt"
)

// UseCase casos de uso de autenticación: registro y login.
type UseCase struct {
	usuarioRepo repository.UsuarioRepository
	jwtCfg      config.JWTConfig
}

// NewUseCase construye el caso de uso de auth.
func NewUseCase(usuarioRepo repository.UsuarioRepository, jwtCfg config.JWTConfig) *UseCase {
	return &UseCase{usuarioRepo: usuarioRepo, jwtCfg: jwtCfg}
}

// Login verifica username/password, genera JWT y retorna token + usuario.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.usuarioRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Username, user.Superuser, uc.jwtCfg.Issuer, uc.jwtCfg.Expiration)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	return &dto.LoginResponse{
		Token: token,
		Tipo:  "bearer",
		User:  *dto.ToUserResponse(user),
	}, nil
}

// Register crea un usuario: hashea password con bcrypt y persiste.
// Solo un superusuario puede registrar usuarios, salvo el bootstrap: cuando la
// tabla está vacía se permite crear el primero (siempre superusuario).
func (uc *UseCase) Register(ctx context.Context, in dto.RegisterRequest, esSuperuser bool) (*dto.UserResponse, error) {
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username y password son obligatorios", domain.ErrInvalidInput)
	}

	if !esSuperuser {
		total, err := uc.usuarioRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if total > 0 {
			return nil, domain.ErrForbidden
		}
		// primer usuario del sistema: bootstrap como superusuario
		in.Superuser = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashear password: %w", err)
	}
	user := &entity.Usuario{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Superuser:    in.Superuser,
	}
	if err := uc.usuarioRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return dto.ToUserResponse(user), nil
}
