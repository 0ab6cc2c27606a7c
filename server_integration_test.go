package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	initDB()
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	seedDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "diver1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "diver1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Create profile
	profBody, _ := json.Marshal(map[string]string{"player_name": "THUPER"})
	resp = performRequest(r, http.MethodPost, "/profile", bytes.NewBuffer(profBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create profile failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Upload a screenshot batch (multipart). A text file produces an OCR
	// failure per image but the batch itself still yields a (mostly empty)
	// pending snapshot.
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("screenshots", "card.png")
	_, _ = w.Write([]byte("NOT A REAL IMAGE"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/screenshots", buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("upload failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var upResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &upResp)
	snapID, _ := upResp["snapshot_id"].(float64)
	if snapID == 0 {
		t.Fatalf("missing snapshot_id in response: %+v", upResp)
	}
	snapPath := fmt.Sprintf("/snapshots/%d", int(snapID))

	// 5. Review: correct a value and confirm
	revBody, _ := json.Marshal(map[string]any{
		"player_name": "THUPER",
		"set":         map[string]int64{"enemy_kills": 1234, "deaths": 52},
	})
	resp = performRequest(r, http.MethodPut, snapPath, bytes.NewBuffer(revBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("review failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Unknown keys are rejected
	badBody, _ := json.Marshal(map[string]any{"set": map[string]int64{"bogus_stat": 1}})
	resp = performRequest(r, http.MethodPut, snapPath, bytes.NewBuffer(badBody), token, "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown key got %d", resp.Code)
	}

	// 7. List snapshots
	resp = performRequest(r, http.MethodGet, "/snapshots", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list snapshots failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Latest confirmed snapshot
	resp = performRequest(r, http.MethodGet, "/snapshots/latest", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("latest snapshot failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/snapshots", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
