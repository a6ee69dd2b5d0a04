package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/survivzhang/Tarot-Reading-Platform/internal/session"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/api"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/repository/store"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/interpreter"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/notify"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/payments"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/service/readings"
	"github.com/survivzhang/Tarot-Reading-Platform/pkg/tarot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	port := getEnv("PORT", "5801")
	databasePath := getEnv("DATABASE_PATH", "tarot.db")
	appURL := getEnv("APP_URL", "http://localhost:"+port)

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	st, err := store.New(store.Config{DatabasePath: databasePath})
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()
	if err := st.SeedCards(context.Background(), tarot.Deck()); err != nil {
		log.Fatalf("seeding cards: %v", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		notifier = notify.NewEmailNotifier(key, getEnv("FROM_EMAIL", "noreply@aitarot.life"), appURL)
	}

	gpt := interpreter.NewGPTService(openAIKey)
	worker := interpreter.NewWorker(st, gpt, notifier, interpreter.WorkerConfig{})
	worker.Start()
	defer worker.Stop()

	readingSvc := readings.NewService(st, worker)

	providers := map[domain.PaymentProvider]payments.Provider{
		domain.ProviderAlipay: payments.AlipayProvider{},
		domain.ProviderWechat: payments.WechatProvider{},
	}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		providers[domain.ProviderStripe] = payments.NewStripeProvider(key, appURL)
	}
	paymentSvc := payments.NewService(st, providers, notifier)

	sessions := session.NewManager(sessionSecret, 30*24*time.Hour)
	handler := api.NewHandler(readingSvc, paymentSvc, st, sessions, notifier)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
