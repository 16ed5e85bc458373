package repository

import (
	"context"
	"time"
)

// Kind identifica el tipo de cuenta. Los valores son los roles
// que viajan en el token ("klient", "lekarz", "konsultant").
type Kind string

const (
	KindClient     Kind = "klient"
	KindDoctor     Kind = "lekarz"
	KindConsultant Kind = "konsultant"
)

// Credentials agrupa los campos de autenticación compartidos por los
// tres tipos de cuenta. Invariantes:
//   - TOTPConfirmed solo puede ser true si TOTPSecret != nil.
//   - FailedLoginAttempts vuelve a 0 cuando se setea LockedUntil
//     (el lockout consume el contador) y cuando el password verifica.
//   - LockedUntil se limpia exactamente cuando el password verifica.
type Credentials struct {
	PasswordHash        string
	MustChangePassword  bool
	TOTPSecret          *string
	TOTPConfirmed       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
}

// Account es la vista común sobre las tres variantes de cuenta.
// Las variantes son structs disjuntos (tablas separadas), no una tabla única.
type Account interface {
	AccountID() int64
	AccountEmail() string
	AccountName() string
	Role() Kind
	Creds() *Credentials
}

// Client es el dueño de animales; puede auto-registrarse.
type Client struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	PostalCode  string
	CreatedAt   time.Time
	Credentials
}

func (c *Client) AccountID() int64     { return c.ID }
func (c *Client) AccountEmail() string { return c.Email }
func (c *Client) AccountName() string  { return c.FirstName + " " + c.LastName }
func (c *Client) Role() Kind           { return KindClient }
func (c *Client) Creds() *Credentials  { return &c.Credentials }

// Doctor es creado por un administrador con password temporal.
type Doctor struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	Specialization string
	PermitNumber   string
	CreatedAt      time.Time
	Credentials
}

func (d *Doctor) AccountID() int64     { return d.ID }
func (d *Doctor) AccountEmail() string { return d.Email }
func (d *Doctor) AccountName() string  { return d.FirstName + " " + d.LastName }
func (d *Doctor) Role() Kind           { return KindDoctor }
func (d *Doctor) Creds() *Credentials  { return &d.Credentials }

// Consultant es creado por un administrador con password temporal.
type Consultant struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	BackupEmail string
	CreatedAt   time.Time
	Credentials
}

func (c *Consultant) AccountID() int64     { return c.ID }
func (c *Consultant) AccountEmail() string { return c.Email }
func (c *Consultant) AccountName() string  { return c.FirstName + " " + c.LastName }
func (c *Consultant) Role() Kind           { return KindConsultant }
func (c *Consultant) Creds() *Credentials  { return &c.Credentials }

// AccountRepository define operaciones sobre cuentas.
//
// El email identifica una cuenta de forma única a través de los tres tipos;
// como cada tipo vive en su propia tabla, FindByEmail hace un union lookup
// (prueba las tres tablas y retorna el primer match).
type AccountRepository interface {
	// FindByEmail busca por email en clients, doctors y consultants.
	// Retorna ErrNotFound si ninguna tabla tiene el email.
	// La ausencia de match NO es un error de sistema: los callers deciden.
	FindByEmail(ctx context.Context, email string) (Account, error)

	// CreateClient crea un cliente. Asigna ID y CreatedAt.
	// Retorna ErrConflict si el email ya existe en cualquier tabla.
	CreateClient(ctx context.Context, c *Client) error

	// CreateDoctor crea un doctor. Asigna ID y CreatedAt.
	CreateDoctor(ctx context.Context, d *Doctor) error

	// CreateConsultant crea un consultor. Asigna ID y CreatedAt.
	CreateConsultant(ctx context.Context, c *Consultant) error

	// List retorna todas las cuentas (las tres tablas unidas).
	List(ctx context.Context) ([]Account, error)

	// UpdateCredentials persiste el bloque Credentials de la cuenta
	// (contador de fallos, lockout, secret/confirmación TOTP, password hash,
	// must_change_password). La cuenta se identifica por Role() + AccountID().
	UpdateCredentials(ctx context.Context, acct Account) error
}
