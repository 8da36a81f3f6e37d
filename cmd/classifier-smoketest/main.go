// Sends sample review texts through the classifier service and prints
// the verdicts. Useful when standing up or retraining the model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/veritrust/review-verify/src/RVApi/classifier"
)

var (
	urlFlag     = flag.String("url", "http://localhost:8000", "Classifier base URL")
	textFlag    = flag.String("text", "", "Single review text to classify (overrides samples)")
	timeoutFlag = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
)

var samples = []string{
	"Best product ever!!! Amazing!!! Buy now!!! 5 stars!!!",
	"I've used these headphones daily for three months. The noise cancellation is excellent on flights, though the ear cups get warm after a few hours.",
	"good good good good very good product good",
	"Battery life is shorter than advertised, roughly six hours with ANC on. Sound quality is solid but I expected more at this price.",
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	texts := samples
	if strings.TrimSpace(*textFlag) != "" {
		texts = []string{*textFlag}
	}

	client := classifier.NewHTTPClient(*urlFlag, *timeoutFlag)
	for i, text := range texts {
		ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
		res, err := client.Analyze(ctx, text)
		cancel()
		if err != nil {
			fmt.Printf("[%d] ❌ %v\n", i+1, err)
			continue
		}
		fmt.Printf("[%d] ✅ %s (%d%%) %s\n", i+1, res.Label, res.FakeProbability, truncate(text, 60))
	}
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
