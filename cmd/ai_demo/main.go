package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	assistant, err := ai.NewGeminiAssistant(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize AI assistant: %v", err)
	}
	defer assistant.Close()

	// Simulated context
	hints := map[string]string{
		"current_date": time.Now().Format("2006-01-02"),
		"user_city":    "Cairo",
	}

	userMessage := "عايز عربية أوتوماتيك SUV بسواق من بكرة لمدة ٣ أيام تحت ١٥٠٠ جنيه"
	if len(os.Args) > 1 {
		userMessage = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("User: %s\n", userMessage)

	intent, err := assistant.ParseSearch(ctx, userMessage, hints)
	if err != nil {
		log.Fatalf("Error parsing search: %v", err)
	}

	fmt.Printf("AI Reply: %s\n", intent.Reply)
	if intent.NeedsClarification {
		fmt.Println("Needs clarification")
	}
	fmt.Printf("Query: %s\n", intent.Query)
	fmt.Printf("URL: %s\n", filter.BuildURL("/cars", filter.Serialize(intent.Filters)))
}
