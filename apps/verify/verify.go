package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

type (
	registration struct {
		FullName   string `json:"fullName"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}

	credentials struct {
		EmployeeID string `json:"employeeId"`
		Password   string `json:"password"`
	}

	result struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		Error   string `json:"error"`
	}
)

// verifier registers a throwaway member and logs back in with the issued employee ID.
type verifier struct {
	client  *rest.Client
	baseURL string
	out     io.Writer
}

func newRegistration() registration {
	return registration{
		FullName:   "Smoke Test",
		Email:      "smoke+" + uuid.NewString()[:8] + "@example.com",
		Phone:      "+91 90000 00000",
		Password:   "Sm0ke-Test-Passphrase",
		Role:       "INTERN",
		Department: "WEB_DEVELOPER",
	}
}

func (v *verifier) post(path string, body interface{}, wantCode int) (result, error) {
	var res result
	payload, err := json.Marshal(body)
	if err != nil {
		return res, errors.Wrap(err, "encoding request")
	}

	resp, err := v.client.Send(rest.Request{
		Method:  rest.Post,
		BaseURL: strings.TrimRight(v.baseURL, "/") + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	})
	if err != nil {
		return res, errors.Wrapf(err, "POST %s", path)
	}
	if err = json.Unmarshal([]byte(resp.Body), &res); err != nil {
		return res, errors.Wrapf(err, "POST %s: decoding response (status %d)", path, resp.StatusCode)
	}
	if resp.StatusCode != wantCode || !res.Success {
		return res, errors.Errorf("POST %s: status %d, success %t: %s", path, resp.StatusCode, res.Success, res.Error)
	}
	return res, nil
}

func (v *verifier) run() error {
	reg := newRegistration()
	res, err := v.post("/register", reg, http.StatusCreated)
	if err != nil {
		return err
	}
	if res.ID == "" {
		return errors.New("POST /register: no employee ID in response")
	}
	fmt.Fprintf(v.out, "registered %s as %s\n", reg.Email, res.ID)

	if _, err = v.post("/login", credentials{EmployeeID: res.ID, Password: reg.Password}, http.StatusOK); err != nil {
		return err
	}
	fmt.Fprintf(v.out, "logged in as %s\n", res.ID)
	return nil
}
