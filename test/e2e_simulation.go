package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	baseURL = "http://localhost:8080/api/v1"
)

// Helper to check errors
func check(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func main() {
	log.Println("=== Starting E2E Integration Test (Simulating Mobile Client) ===")

	// 1. Authenticate
	log.Println("1. Register/Login to get Token...")
	email := fmt.Sprintf("e2e_%d@ville.mg", time.Now().Unix())
	regPayload := map[string]string{
		"email":      email,
		"password":   "securepassword",
		"first_name": "E2E",
		"last_name":  "Agent",
	}
	regBody, _ := json.Marshal(regPayload)
	regResp, err := http.Post(fmt.Sprintf("%s/auth/register", baseURL), "application/json", bytes.NewReader(regBody))
	check(err)
	if regResp.StatusCode != http.StatusCreated && regResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(regResp.Body)
		log.Printf("Register failed: %s - %s", regResp.Status, string(body))
	} else {
		log.Println("   -> Registered successfully.")
	}
	regResp.Body.Close()

	// Login
	loginBody, _ := json.Marshal(map[string]string{"email": email, "password": "securepassword"})
	loginResp, err := http.Post(fmt.Sprintf("%s/auth/login", baseURL), "application/json", bytes.NewReader(loginBody))
	check(err)
	defer loginResp.Body.Close()

	if loginResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(loginResp.Body)
		log.Fatalf("Login failed: %s - %s", loginResp.Status, string(body))
	}

	var loginData map[string]interface{}
	json.NewDecoder(loginResp.Body).Decode(&loginData)
	token := loginData["access_token"].(string)
	log.Printf("   -> Authenticated! Token: %s...", token[:10])

	// Helper to make authenticated requests
	authRequest := func(method, url string, body io.Reader) *http.Response {
		req, _ := http.NewRequest(method, url, body)
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := http.DefaultClient.Do(req)
		check(err)
		return resp
	}

	// 2. Get Presigned URL
	fileName := "photo_nid_de_poule.jpg"
	log.Printf("2. Requesting Presigned URL for %s...", fileName)
	resp := authRequest("GET", fmt.Sprintf("%s/signalements/upload-url?file_name=%s", baseURL, fileName), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Failed to get upload URL: %s - %s", resp.Status, string(body))
	}

	var uploadInfo map[string]string
	json.NewDecoder(resp.Body).Decode(&uploadInfo)
	uploadUrl := uploadInfo["upload_url"]
	log.Println("   -> Presigned URL received!")

	// 3. Upload File to MinIO
	log.Println("3. Uploading file to MinIO...")
	dummyContent := []byte("This is a dummy image for E2E testing.")
	req, err := http.NewRequest(http.MethodPut, uploadUrl, bytes.NewReader(dummyContent))
	check(err)
	req.Header.Set("Content-Type", "image/jpeg")

	client := &http.Client{}
	uploadResp, err := client.Do(req)
	check(err)
	defer uploadResp.Body.Close()

	if uploadResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(uploadResp.Body)
		log.Fatalf("Failed to upload to MinIO: %s - %s", uploadResp.Status, string(body))
	}
	log.Println("   -> Upload successful!")

	// 4. Create Signalement
	log.Println("4. Creating Signalement with photo...")
	sigPayload := map[string]interface{}{
		"title":        "E2E: nid-de-poule avenue de l'Indépendance",
		"description":  "Signalement créé par le script de simulation.",
		"latitude":     -18.9101,
		"longitude":    47.5255,
		"type":         "POTHOLE",
		"priority":     "HIGH",
		"surface_area": 12.5,
		"level":        3,
		"photo_url":    fileName,
	}

	jsonBody, _ := json.Marshal(sigPayload)
	sigResp := authRequest("POST", fmt.Sprintf("%s/signalements", baseURL), bytes.NewReader(jsonBody))
	defer sigResp.Body.Close()

	if sigResp.StatusCode != http.StatusCreated && sigResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(sigResp.Body)
		log.Fatalf("Failed to create signalement: %s - %s", sigResp.Status, string(body))
	}

	var created map[string]interface{}
	json.NewDecoder(sigResp.Body).Decode(&created)
	sigID := created["id"].(float64)
	syncID := created["sync_id"].(string)
	log.Printf("   -> Signalement created! id=%.0f syncId=%s budget=%v", sigID, syncID, created["budget"])

	// 5. Move it through the lifecycle
	log.Println("5. Transition NEW -> IN_PROGRESS...")
	updBody, _ := json.Marshal(map[string]interface{}{"status": "IN_PROGRESS"})
	updResp := authRequest("PUT", fmt.Sprintf("%s/signalements/%.0f", baseURL, sigID), bytes.NewReader(updBody))
	defer updResp.Body.Close()

	var updated map[string]interface{}
	json.NewDecoder(updResp.Body).Decode(&updated)
	if updated["progress"] != float64(50) {
		log.Fatalf("FAILURE: expected progress 50, got %v", updated["progress"])
	}
	log.Printf("   -> progress=%v dateInProgress=%v", updated["progress"], updated["date_in_progress"])

	// 6. Offline sync round-trip
	log.Println("6. Simulating offline sync push...")
	offlineSyncID := uuid.New().String()
	syncBody, _ := json.Marshal(map[string]interface{}{
		"last_sync_time": time.Now().Add(-time.Hour).Format(time.RFC3339),
		"signalements": []map[string]interface{}{{
			"sync_id":          offlineSyncID,
			"title":            "E2E: fissure créée hors ligne",
			"latitude":         -18.92,
			"longitude":        47.51,
			"local_updated_at": time.Now().Format(time.RFC3339),
		}},
	})
	syncResp := authRequest("POST", fmt.Sprintf("%s/signalements/sync", baseURL), bytes.NewReader(syncBody))
	defer syncResp.Body.Close()

	var syncResult map[string]interface{}
	json.NewDecoder(syncResp.Body).Decode(&syncResult)
	createdList, _ := syncResult["created"].([]interface{})
	if len(createdList) != 1 {
		log.Fatalf("FAILURE: sync should have created 1 record, got %v", syncResult)
	}
	log.Printf("   -> Sync OK: created=%d conflicts=%v serverChanges=%d",
		len(createdList), syncResult["conflicts_resolved"], len(syncResult["server_changes"].([]interface{})))

	// 7. Stats
	log.Println("7. Checking stats...")
	statsResp := authRequest("GET", fmt.Sprintf("%s/signalements/stats", baseURL), nil)
	defer statsResp.Body.Close()

	var stats map[string]interface{}
	json.NewDecoder(statsResp.Body).Decode(&stats)
	log.Printf("   -> total=%v budget=%v", stats["total"], stats["total_budget"])

	log.Println("SUCCESS: E2E Integration Test Passed!")
}
