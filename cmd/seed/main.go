// seed carga datos de demo: una consultora admin, un doctor, un cliente,
// un animal y una cita. Imprime credenciales y secretos TOTP por stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/vetclinic/internal/config"
	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/security/password"
	"github.com/dropDatabas3/vetclinic/internal/security/totp"
	"github.com/dropDatabas3/vetclinic/internal/store"
)

func strEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("VETCLINIC_CONFIG"), "ruta del YAML de configuración")
	confirmTOTP := flag.Bool("confirm-totp", false, "deja el TOTP ya confirmado (login directo con vetctl totp code)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	seedPassword := strEnv("VETCLINIC_SEED_PASSWORD", "cambiame-ya")
	phc, err := password.Hash(password.Default, seedPassword)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}

	creds := func() (repository.Credentials, string) {
		secret, err := totp.GenerateSecret()
		if err != nil {
			log.Fatalf("totp secret: %v", err)
		}
		return repository.Credentials{
			PasswordHash:  phc,
			TOTPSecret:    &secret,
			TOTPConfirmed: *confirmTOTP,
		}, secret
	}

	adminCreds, adminSecret := creds()
	admin := &repository.Consultant{
		FirstName:   "Marta",
		LastName:    "Ríos",
		Email:       "admin@vetclinic.test",
		Credentials: adminCreds,
	}
	if err := st.Accounts.CreateConsultant(ctx, admin); err != nil && !errors.Is(err, repository.ErrConflict) {
		log.Fatalf("seed admin: %v", err)
	}

	doctorCreds, doctorSecret := creds()
	doctor := &repository.Doctor{
		FirstName:      "Julián",
		LastName:       "Paz",
		Email:          "doctor@vetclinic.test",
		Specialization: "clínica general",
		PermitNumber:   "MP-1024",
		Credentials:    doctorCreds,
	}
	if err := st.Accounts.CreateDoctor(ctx, doctor); err != nil && !errors.Is(err, repository.ErrConflict) {
		log.Fatalf("seed doctor: %v", err)
	}

	clientCreds, clientSecret := creds()
	cl := &repository.Client{
		FirstName:   "Sofía",
		LastName:    "Gutiérrez",
		Email:       "cliente@vetclinic.test",
		PhoneNumber: "+54 11 5555 0001",
		Address:     "Av. Siempreviva 742",
		Credentials: clientCreds,
	}
	if err := st.Accounts.CreateClient(ctx, cl); err != nil && !errors.Is(err, repository.ErrConflict) {
		log.Fatalf("seed client: %v", err)
	}

	if cl.ID > 0 && doctor.ID > 0 {
		animal := &repository.Animal{
			OwnerID:    cl.ID,
			Name:       "Bigotes",
			Species:    "gato",
			Breed:      "europeo",
			Age:        4,
			ChipNumber: "985112003456789",
		}
		if err := st.Animals.Create(ctx, animal); err != nil {
			log.Fatalf("seed animal: %v", err)
		}
		appt := &repository.Appointment{
			ClientID:    cl.ID,
			DoctorID:    doctor.ID,
			AnimalID:    animal.ID,
			ScheduledAt: time.Now().Add(48 * time.Hour).Truncate(time.Hour),
			Reason:      "control anual",
			Status:      "scheduled",
		}
		if err := st.Appointments.Create(ctx, appt); err != nil {
			log.Fatalf("seed appointment: %v", err)
		}
	}

	fmt.Println("seed listo. password para las tres cuentas:", seedPassword)
	fmt.Println("  admin@vetclinic.test    totp_secret:", adminSecret)
	fmt.Println("  doctor@vetclinic.test   totp_secret:", doctorSecret)
	fmt.Println("  cliente@vetclinic.test  totp_secret:", clientSecret)
	if !*confirmTOTP {
		fmt.Println("TOTP sin confirmar: el primer login devuelve la URI de provisión.")
	}
}
