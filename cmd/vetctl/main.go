// vetctl es la CLI operativa: login de prueba, códigos TOTP locales,
// consultas al ledger y generación de seeds de firma.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/vetclinic/internal/security/totp"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL   = envOr("VETCLINIC_URL", "http://localhost:8080")
		ledgerURL = envOr("VETCLINIC_LEDGER_URL", "http://localhost:9090")
		out       = envOr("VETCLINIC_OUT", "text")
		timeout   = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "vetctl",
		Short: "CLI operativa del backend de la clínica",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del backend (env VETCLINIC_URL)")
	root.PersistentFlags().StringVar(&ledgerURL, "ledger-url", ledgerURL, "URL base del nodo de ledger (env VETCLINIC_LEDGER_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	api := &client{BaseURL: baseURL, OutFormat: out, HTTP: httpClient}
	ledgerAPI := &client{BaseURL: ledgerURL, OutFormat: out, HTTP: httpClient}

	// login de prueba contra /users/login
	var loginEmail, loginPassword, loginCode string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login contra el backend (imprime el access token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			payload := map[string]any{"email": loginEmail, "password": loginPassword}
			if loginCode != "" {
				payload["totp_code"] = loginCode
			}
			b, _ := json.Marshal(payload)
			status, body, err := api.do("POST", "/users/login", b, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("login fallo: status=%d body=%s", status, string(body))
			}
			api.print(status, body)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email de la cuenta")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")
	loginCmd.Flags().StringVar(&loginCode, "totp", "", "Código TOTP (si la cuenta ya confirmó)")

	// grupo totp: operaciones locales, sin red
	totpCmd := &cobra.Command{Use: "totp", Short: "Utilidades TOTP locales"}

	var codeSecret string
	totpCodeCmd := &cobra.Command{
		Use:   "code",
		Short: "Imprime el código TOTP vigente para un secreto base32",
		RunE: func(cmd *cobra.Command, args []string) error {
			if codeSecret == "" {
				return fmt.Errorf("--secret es requerido")
			}
			code, err := totp.Code(codeSecret, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}
	totpCodeCmd.Flags().StringVar(&codeSecret, "secret", "", "Secreto TOTP en base32")

	var uriIssuer, uriEmail, uriSecret string
	totpURICmd := &cobra.Command{
		Use:   "uri",
		Short: "Arma la URI otpauth:// para un secreto",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uriEmail == "" || uriSecret == "" {
				return fmt.Errorf("--email y --secret son requeridos")
			}
			fmt.Println(totp.OTPAuthURL(uriIssuer, uriEmail, uriSecret))
			return nil
		},
	}
	totpURICmd.Flags().StringVar(&uriIssuer, "issuer", "VetClinic", "Issuer de la URI")
	totpURICmd.Flags().StringVar(&uriEmail, "email", "", "Cuenta (email)")
	totpURICmd.Flags().StringVar(&uriSecret, "secret", "", "Secreto TOTP en base32")

	totpCmd.AddCommand(totpCodeCmd)
	totpCmd.AddCommand(totpURICmd)

	// grupo ledger: consultas directas al nodo
	ledgerCmd := &cobra.Command{Use: "ledger", Short: "Consultas al nodo de ledger"}

	var getID int64
	ledgerGetCmd := &cobra.Command{
		Use:   "get",
		Short: "Entrada actual de un record en el ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if getID <= 0 {
				return fmt.Errorf("--id es requerido")
			}
			status, body, err := ledgerAPI.do("GET", fmt.Sprintf("/ledger/records/%d", getID), nil, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			ledgerAPI.print(status, body)
			return nil
		},
	}
	ledgerGetCmd.Flags().Int64Var(&getID, "id", 0, "ID del record")

	var ownerName string
	ledgerOwnerCmd := &cobra.Command{
		Use:   "owner",
		Short: "IDs registrados por una cuenta de servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerName == "" {
				return fmt.Errorf("--owner es requerido")
			}
			status, body, err := ledgerAPI.do("GET", "/ledger/owners/"+ownerName, nil, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("owner fallo: status=%d body=%s", status, string(body))
			}
			ledgerAPI.print(status, body)
			return nil
		},
	}
	ledgerOwnerCmd.Flags().StringVar(&ownerName, "owner", "", "Cuenta de servicio")

	ledgerCmd.AddCommand(ledgerGetCmd)
	ledgerCmd.AddCommand(ledgerOwnerCmd)

	// keys seed: seed Ed25519 para VETCLINIC_JWT_SEED
	keysCmd := &cobra.Command{Use: "keys", Short: "Material de firma"}
	keysSeedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Genera un seed Ed25519 (base64) para VETCLINIC_JWT_SEED",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := make([]byte, 32)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(seed))
			return nil
		},
	}
	keysCmd.AddCommand(keysSeedCmd)

	root.AddCommand(loginCmd)
	root.AddCommand(totpCmd)
	root.AddCommand(ledgerCmd)
	root.AddCommand(keysCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
