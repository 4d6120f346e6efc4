// Command simulate drives a running skillsift server end to end: it
// creates and starts an A/B test, extracts skills for a population of
// synthetic users, submits per-variant observations, and prints the
// resulting analysis.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

var sampleTexts = []string{
	"Senior engineer with deep Python and Django experience, comfortable with PostgreSQL and Redis.",
	"We are looking for someone who knows Kubernetes, Docker and Terraform for our platform team.",
	"Frontend developer fluent in React, TypeScript and modern CSS tooling.",
	"Data scientist with TensorFlow, PyTorch and solid SQL skills.",
	"Backend developer: Go, gRPC, Kafka, and a bit of AWS.",
}

func main() {
	addr := flag.String("addr", "http://localhost:9080", "base URL of the skillsift server")
	users := flag.Int("users", 50, "number of synthetic users")
	observations := flag.Int("observations", 200, "number of observations to submit")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	flag.Parse()

	client := &http.Client{Timeout: requestTimeout}
	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // simulation, not crypto

	testID, variants, err := createAndStartTest(client, *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup failed:", err)
		os.Exit(1)
	}
	fmt.Println("created test", testID)

	for i := 0; i < *users; i++ {
		userID := fmt.Sprintf("user-%03d", i)
		text := sampleTexts[rng.Intn(len(sampleTexts))]
		if err := extract(client, *addr, text, userID); err != nil {
			fmt.Fprintln(os.Stderr, "extract failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("ran extraction for %d users\n", *users)

	for i := 0; i < *observations; i++ {
		variantID := variants[rng.Intn(len(variants))]
		if err := submitObservation(client, *addr, testID, variantID, rng); err != nil {
			fmt.Fprintln(os.Stderr, "observation failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("submitted %d observations\n", *observations)

	results, err := fetchResults(client, *addr, testID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "results failed:", err)
		os.Exit(1)
	}
	fmt.Println(results)
}

func createAndStartTest(client *http.Client, addr string) (string, []string, error) {
	body := map[string]any{
		"name":        "simulated threshold sweep",
		"description": "control threshold vs a stricter cutoff",
		"variants": []map[string]any{
			{
				"variant_id":         "control",
				"name":               "baseline",
				"config":             map[string]float64{},
				"traffic_percentage": 50,
				"is_control":         true,
			},
			{
				"variant_id":         "strict",
				"name":               "strict cutoff",
				"config":             map[string]float64{"min_confidence": 0.45},
				"traffic_percentage": 50,
			},
		},
		"minimum_sample_size": 50,
	}

	var created struct {
		TestID   string `json:"test_id"`
		Variants []struct {
			ID string `json:"variant_id"`
		} `json:"variants"`
	}
	if err := post(client, addr+"/tests", body, &created); err != nil {
		return "", nil, err
	}

	if err := post(client, addr+"/tests/"+created.TestID+"/start", nil, nil); err != nil {
		return "", nil, err
	}

	ids := make([]string, 0, len(created.Variants))
	for _, v := range created.Variants {
		ids = append(ids, v.ID)
	}
	return created.TestID, ids, nil
}

func extract(client *http.Client, addr, text, userID string) error {
	body := map[string]any{"text": text, "user_id": userID}
	return post(client, addr+"/extract", body, nil)
}

func submitObservation(client *http.Client, addr, testID, variantID string, rng *rand.Rand) error {
	// The strict variant simulates a small precision gain.
	f1 := 0.70 + rng.Float64()*0.1
	if variantID == "strict" {
		f1 += 0.05
	}
	body := map[string]any{
		"observation_id": uuid.NewString(),
		"variant_id":     variantID,
		"metrics": map[string]any{
			"precision":         f1 + 0.02,
			"recall":            f1 - 0.02,
			"f1_score":          f1,
			"extraction_time":   5 + rng.Float64()*10,
			"user_satisfaction": 0.8,
			"total_extractions": 1,
		},
	}
	return post(client, addr+"/tests/"+testID+"/observations", body, nil)
}

func fetchResults(client *http.Client, addr, testID string) (string, error) {
	resp, err := client.Get(addr + "/tests/" + testID + "/results")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var pretty bytes.Buffer
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", err
	}
	return pretty.String(), nil
}

func post(client *http.Client, url string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	resp, err := client.Post(url, "application/json", &payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
