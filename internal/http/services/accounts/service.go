// Package accounts implementa el alta y listado de cuentas. Los clientes
// se auto-registran; doctores y consultores los crea administración con
// password temporal enviado por email.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/email"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	"github.com/dropDatabas3/vetclinic/internal/security/password"
	"github.com/dropDatabas3/vetclinic/internal/security/token"
)

var (
	ErrEmailTaken   = errors.New("accounts: email already registered")
	ErrInvalidInput = errors.New("accounts: invalid input")
)

// Deps contiene las dependencias del servicio.
type Deps struct {
	Accounts repository.AccountRepository
	Email    *email.Service // nil = no se mandan correos

	TempPasswordLength int // default 12
}

// Service es el servicio de cuentas.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.TempPasswordLength <= 0 {
		deps.TempPasswordLength = 12
	}
	return &Service{deps: deps}
}

// RegisterClient auto-registro de cliente con password propio.
func (s *Service) RegisterClient(ctx context.Context, c *repository.Client, plainPassword string) error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || plainPassword == "" {
		return ErrInvalidInput
	}
	hash, err := password.Hash(password.Default, plainPassword)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	c.MustChangePassword = false

	if err := s.deps.Accounts.CreateClient(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}
	logger.From(ctx).Info("client registered",
		logger.AccountID(c.ID), logger.Email(c.Email))
	return nil
}

// provision genera el password temporal y arma las credenciales de una
// cuenta creada por administración.
func (s *Service) provision(creds *repository.Credentials) (string, error) {
	temp, err := token.GenerateTempPassword(s.deps.TempPasswordLength)
	if err != nil {
		return "", err
	}
	hash, err := password.Hash(password.Default, temp)
	if err != nil {
		return "", err
	}
	creds.PasswordHash = hash
	creds.MustChangePassword = true
	return temp, nil
}

func (s *Service) emailTempPassword(ctx context.Context, to, name, temp string) {
	if s.deps.Email == nil {
		return
	}
	// El fallo del correo no deshace el alta: se loguea y administración
	// puede regenerar el password.
	if err := s.deps.Email.SendTempPassword(to, name, temp); err != nil {
		logger.From(ctx).Error("temp password email failed",
			logger.Email(to), logger.Err(err))
	}
}

// CreateDoctor alta de doctor por administración.
func (s *Service) CreateDoctor(ctx context.Context, d *repository.Doctor) error {
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	if d.Email == "" {
		return ErrInvalidInput
	}
	temp, err := s.provision(&d.Credentials)
	if err != nil {
		return err
	}
	if err := s.deps.Accounts.CreateDoctor(ctx, d); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}
	s.emailTempPassword(ctx, d.Email, d.AccountName(), temp)
	logger.From(ctx).Info("doctor created",
		logger.AccountID(d.ID), logger.Email(d.Email))
	return nil
}

// CreateConsultant alta de consultor por administración.
func (s *Service) CreateConsultant(ctx context.Context, c *repository.Consultant) error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" {
		return ErrInvalidInput
	}
	temp, err := s.provision(&c.Credentials)
	if err != nil {
		return err
	}
	if err := s.deps.Accounts.CreateConsultant(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}
	s.emailTempPassword(ctx, c.Email, c.AccountName(), temp)
	logger.From(ctx).Info("consultant created",
		logger.AccountID(c.ID), logger.Email(c.Email))
	return nil
}

// List retorna todas las cuentas.
func (s *Service) List(ctx context.Context) ([]repository.Account, error) {
	return s.deps.Accounts.List(ctx)
}
