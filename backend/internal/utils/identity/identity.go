package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
)

const maxResponseSize = 1 << 20

const unavailableMessage = "Authentication service is unavailable, try again later"

// Profile is the directory's view of a student after a successful login.
type Profile struct {
	RegistrationNumber string
	FirstName          string
	LastName           string
	Email              string
	Program            string
	StudyYear          int
	Specialization     string
}

// Dialect is the request vocabulary the directory expects. Responses in either
// vocabulary are understood regardless.
type Dialect string

const (
	DialectStandard Dialect = "standard"
	DialectLegacy   Dialect = "legacy"
)

type Client struct {
	URL        string
	APIKey     string
	Dialect    Dialect
	HttpClient *http.Client
}

func New(url, apiKey string, dialect Dialect, timeout time.Duration) *Client {
	return &Client{
		URL:        url,
		APIKey:     apiKey,
		Dialect:    dialect,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// wire format of the directory service

type credentials struct {
	Code     int    `json:"code"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type legacyCredentials struct {
	Cod        int    `json:"cod"`
	Utilizator string `json:"utilizator"`
	Parola     string `json:"parola"`
}

func (c *Client) requestBody(email, password string) any {
	if c.Dialect == DialectLegacy {
		return map[string]legacyCredentials{"cerere": {Utilizator: email, Parola: password}}
	}
	return map[string]credentials{"request": {User: email, Password: password}}
}

type response struct {
	Result   *result         `json:"result"`
	Error    *directoryError `json:"error"`
	Rezultat *legacyResult   `json:"rezultat"`
	Eroare   *directoryError `json:"eroare"`
}

func (r *response) rejection() *directoryError {
	if r.Error != nil {
		return r.Error
	}
	return r.Eroare
}

func (r *response) outcome() *result {
	if r.Result != nil {
		return r.Result
	}
	if r.Rezultat != nil {
		return r.Rezultat.standard()
	}
	return nil
}

type result struct {
	RegistrationID flexString `json:"registrationId"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Program        string     `json:"program"`
	Year           flexString `json:"year"`
	Specialization string     `json:"specialization"`
}

type legacyResult struct {
	Marca        flexString `json:"marca"`
	Prenume      string     `json:"prenume"`
	Nume         string     `json:"nume"`
	Email        string     `json:"email"`
	Profil       string     `json:"profil"`
	An           flexString `json:"an"`
	Specializare string     `json:"specializare"`
}

func (l *legacyResult) standard() *result {
	return &result{
		RegistrationID: l.Marca,
		FirstName:      l.Prenume,
		LastName:       l.Nume,
		Email:          l.Email,
		Program:        l.Profil,
		Year:           l.An,
		Specialization: l.Specializare,
	}
}

// directoryError is either a bare string or an object carrying the text under
// "description", "message" or "descriere".
type directoryError struct {
	Description string
}

func (e *directoryError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Description = s
		return nil
	}
	var obj struct {
		Description string `json:"description"`
		Message     string `json:"message"`
		Descriere   string `json:"descriere"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, text := range []string{obj.Description, obj.Message, obj.Descriere} {
		if strings.TrimSpace(text) != "" {
			e.Description = text
			break
		}
	}
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func unavailable() error {
	return &internal_errors.AuthError{Kind: internal_errors.ServiceUnavailable, Message: unavailableMessage}
}

// Authenticate checks credentials against the directory. Transport failures and
// unexpected responses are AuthError{ServiceUnavailable}; a rejection carries the
// directory's own description as AuthError{InvalidCredentials}.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*Profile, error) {
	body, err := json.Marshal(c.requestBody(email, password))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		logger.Log.Error("auth service request failed", "error", err)
		return nil, unavailable()
	}
	defer resp.Body.Close()

	var parsed response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&parsed)

	// A rejection is honoured whatever the status code.
	if rejection := parsed.rejection(); decodeErr == nil && rejection != nil {
		msg := strings.TrimSpace(rejection.Description)
		if msg == "" {
			msg = "Invalid credentials"
		}
		return nil, &internal_errors.AuthError{Kind: internal_errors.InvalidCredentials, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Error("auth service returned unexpected status", "status", resp.StatusCode)
		return nil, unavailable()
	}
	if decodeErr != nil {
		logger.Log.Error("auth service returned undecodable body", "error", decodeErr)
		return nil, unavailable()
	}
	outcome := parsed.outcome()
	if outcome == nil {
		logger.Log.Error("auth service response has neither result nor error")
		return nil, unavailable()
	}
	return outcome.profile()
}

func (r *result) profile() (*Profile, error) {
	year, err := strconv.Atoi(strings.TrimSpace(string(r.Year)))
	if err != nil || r.RegistrationID == "" {
		logger.Log.Error("auth service result is incomplete", "registration_present", r.RegistrationID != "", "year", string(r.Year))
		return nil, unavailable()
	}
	return &Profile{
		RegistrationNumber: string(r.RegistrationID),
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Email:              r.Email,
		Program:            r.Program,
		StudyYear:          year,
		Specialization:     r.Specialization,
	}, nil
}
