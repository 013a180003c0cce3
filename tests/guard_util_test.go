package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sync/atomic"
	"testing"
	"time"
)

var ipSeq atomic.Uint32

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type loginData struct {
	OTPRequired      bool   `json:"otp_required"`
	SessionToken     string `json:"session_token"`
	MaskedEmail      string `json:"masked_email"`
	RemainingResends *int   `json:"remaining_resends"`
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
}

type credential struct {
	Username string
	Password string
}

func userCredential(t *testing.T) credential {
	t.Helper()

	return credentialFromEnv(t, "LOGINGUARD_E2E_USERNAME", "LOGINGUARD_E2E_PASSWORD")
}

func adminCredential(t *testing.T) credential {
	t.Helper()

	return credentialFromEnv(t, "LOGINGUARD_E2E_ADMIN_USERNAME", "LOGINGUARD_E2E_ADMIN_PASSWORD")
}

func credentialFromEnv(t *testing.T, userKey, passKey string) credential {
	t.Helper()

	c := credential{Username: os.Getenv(userKey), Password: os.Getenv(passKey)}
	if c.Username == "" || c.Password == "" {
		t.Skipf("%s and %s must be set", userKey, passKey)
	}

	return c
}

// uniqueIP returns a fresh address from the benchmarking range so that blocks
// created by one test never leak into another.
func uniqueIP() string {
	n := uint32(time.Now().UnixNano()&0xff00) + ipSeq.Add(1)
	return fmt.Sprintf("198.18.%d.%d", (n>>8)&0xff, n&0xff)
}

func login(t *testing.T, ip string, c credential) (int, loginData, envelope) {
	t.Helper()

	return guardCall(t, ip, "/api/v1/guard/login", map[string]any{
		"username": c.Username,
		"password": c.Password,
	})
}

// guardCall posts to one of the public guard routes. The envelope is only
// returned for non-200 answers.
func guardCall(t *testing.T, ip, path string, payload any) (int, loginData, envelope) {
	t.Helper()

	resp := send(t, request{method: http.MethodPost, path: path, body: payload, ip: ip})
	if resp.status != http.StatusOK {
		return resp.status, loginData{}, resp.decode(t, nil)
	}

	var data loginData
	resp.decode(t, &data)

	return resp.status, data, envelope{}
}

func startChallenge(t *testing.T, ip string, c credential) loginData {
	t.Helper()

	status, data, errEnv := login(t, ip, c)
	if status != http.StatusOK {
		t.Fatalf("login failed: status=%d message=%q", status, errEnv.Message)
	}
	if !data.OTPRequired || data.SessionToken == "" {
		t.Skip("server runs with otp disabled")
	}

	return data
}

func verify(t *testing.T, ip, session, code string) (int, loginData, envelope) {
	t.Helper()

	return guardCall(t, ip, "/api/v1/guard/otp/verify", map[string]string{
		"session_token": session,
		"code":          code,
	})
}

// latestCode reads the code out of the newest message captured by Mailpit.
func latestCode(t *testing.T) string {
	t.Helper()

	if server.mailpit == "" {
		t.Skip("LOGINGUARD_MAILPIT_URL must be set to read emailed codes")
	}

	resp, err := server.client.Get(server.mailpit + "/api/v1/message/latest")
	if err != nil {
		t.Fatalf("fetch latest mail: %v", err)
	}
	defer resp.Body.Close()

	var msg struct {
		Subject string `json:"Subject"`
		Text    string `json:"Text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode latest mail: %v", err)
	}

	code := codePattern.FindString(msg.Text)
	if code == "" {
		t.Fatalf("no code found in mail %q", msg.Subject)
	}

	return code
}

func adminToken(t *testing.T) string {
	t.Helper()

	ip := uniqueIP()
	data := startChallenge(t, ip, adminCredential(t))

	status, out, errEnv := verify(t, ip, data.SessionToken, latestCode(t))
	if status != http.StatusOK {
		t.Fatalf("admin verify failed: status=%d message=%q", status, errEnv.Message)
	}
	if out.AccessToken == "" {
		t.Fatal("missing admin access token")
	}

	return out.AccessToken
}
