// Minimal end‑to‑end integration test for the review verification API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	redisURL = getenv("REDIS_URL", "redis://localhost:6379/0")
	userID   = "smoke-" + uuid.NewString()[:8]
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	ctx := context.Background()
	rdb := mustRedis()
	defer rdb.Close()

	txRef := initiatePurchase()
	confirmAnchor(ctx, rdb, txRef) // mark the payment as settled in Redis
	verifyPurchase(txRef)
	checkEligibility(txRef)

	reviewRef := submitReview(txRef)
	checkReviewListed(reviewRef)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- purchases

func initiatePurchase() string {
	var resp struct {
		TxRef  string `json:"txRef"`
		Status string `json:"status"`
	}
	doJSON("POST", "/purchases", map[string]any{
		"userId":    userID,
		"productId": "P001",
	}, &resp, http.StatusCreated)
	if resp.TxRef == "" {
		log.Fatal("purchase: empty txRef")
	}
	if resp.Status != "PENDING" {
		log.Fatalf("purchase: status %q, want PENDING", resp.Status)
	}
	return resp.TxRef
}

func confirmAnchor(ctx context.Context, rdb *redis.Client, txRef string) {
	if err := rdb.Set(ctx, "anchor:confirmed:"+txRef, "1", 5*time.Minute).Err(); err != nil {
		log.Fatalf("redis set: %v", err)
	}
}

func verifyPurchase(txRef string) {
	var resp struct {
		Verified      bool `json:"verified"`
		ReviewAllowed bool `json:"reviewAllowed"`
	}
	doJSON("POST", "/purchases/"+txRef+"/verify", nil, &resp, http.StatusOK)
	if !resp.Verified || !resp.ReviewAllowed {
		log.Fatal("verify: purchase did not settle")
	}
}

// ----------------------------- reviews

func checkEligibility(txRef string) {
	var resp struct {
		Eligible bool `json:"eligible"`
	}
	doJSON("GET", "/reviews/eligibility/"+txRef, nil, &resp, http.StatusOK)
	if !resp.Eligible {
		log.Fatal("eligibility: verified purchase not eligible")
	}
}

func submitReview(txRef string) string {
	var resp struct {
		TxRef string `json:"txRef"`
		Label string `json:"label"`
	}
	doJSON("POST", "/reviews", map[string]any{
		"userId":      userID,
		"productId":   "P001",
		"purchaseRef": txRef,
		"text":        "integration-test review, sound quality is excellent " + uuid.NewString(),
		"rating":      5,
	}, &resp, http.StatusCreated)
	if resp.TxRef == "" {
		log.Fatal("review: empty txRef")
	}
	log.Printf("review labelled %s", resp.Label)
	return resp.TxRef
}

func checkReviewListed(reviewRef string) {
	var resp struct {
		Reviews []struct {
			TxRef string `json:"txRef"`
		} `json:"reviews"`
	}
	doJSON("GET", "/reviews/product/P001", nil, &resp, http.StatusOK)
	for _, r := range resp.Reviews {
		if r.TxRef == reviewRef {
			return
		}
	}
	log.Fatal("reviews: submitted review not listed")
}

// ----------------------------- helpers

func mustRedis() *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	return redis.NewClient(opt)
}

func doJSON(method, path string, body, out any, want int) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("%s %s: marshal: %v", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		log.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			log.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}
