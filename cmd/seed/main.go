package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"prsentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "prsentinel"
	}
	db := client.Database(dbName)

	now := time.Now().UTC()
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	transactions := []interface{}{
		model.Transaction{
			ID:              "TXN-1001",
			CustomerID:      "CUST-2001",
			CustomerName:    "Maria Santos",
			Amount:          2500.00,
			Currency:        "USD",
			TransactionType: "wire_transfer",
			Status:          model.TxnFlagged,
			Description:     "International wire transfer to new beneficiary",
			FlaggedReason:   "Possible phishing attempt reported by customer",
			Timestamp:       daysAgo(1),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		model.Transaction{
			ID:              "TXN-1002",
			CustomerID:      "CUST-2002",
			CustomerName:    "James Okafor",
			Amount:          120.50,
			Currency:        "USD",
			TransactionType: "card_payment",
			Status:          model.TxnFailed,
			Description:     "Card payment declined at checkout, customer reported app error",
			Timestamp:       daysAgo(2),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		model.Transaction{
			ID:              "TXN-1003",
			CustomerID:      "CUST-2003",
			CustomerName:    "Li Wei",
			Amount:          830.00,
			Currency:        "USD",
			TransactionType: "bill_payment",
			Status:          model.TxnInProcess,
			Description:     "Utility bill payment stuck in processing for 48 hours",
			Timestamp:       daysAgo(2),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		model.Transaction{
			ID:              "TXN-1004",
			CustomerID:      "CUST-2004",
			CustomerName:    "Anna Kowalski",
			Amount:          15000.00,
			Currency:        "USD",
			TransactionType: "wire_transfer",
			Status:          model.TxnFlagged,
			Description:     "Large transfer flagged by fraud detection",
			FlaggedReason:   "Suspected fraud, transaction pattern anomaly",
			Timestamp:       daysAgo(3),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		model.Transaction{
			ID:              "TXN-1005",
			CustomerID:      "CUST-2005",
			CustomerName:    "Omar Haddad",
			Amount:          45.99,
			Currency:        "USD",
			TransactionType: "card_payment",
			Status:          model.TxnCompleted,
			Description:     "Subscription renewal",
			Timestamp:       daysAgo(4),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	reviews := []interface{}{
		model.Review{
			ID:           "REV-3001",
			CustomerID:   "CUST-2001",
			CustomerName: "Maria Santos",
			Rating:       1,
			Sentiment:    "negative",
			Category:     "fraud_concern",
			ReviewText:   "I received a phishing email pretending to be the bank and almost lost my savings. Security needs to be much better.",
			Source:       "app",
			Timestamp:    daysAgo(1),
			CreatedAt:    now,
		},
		model.Review{
			ID:           "REV-3002",
			CustomerID:   "CUST-2002",
			CustomerName: "James Okafor",
			Rating:       2,
			Sentiment:    "negative",
			Category:     "app_issue",
			ReviewText:   "The mobile app keeps crashing when I try to pay my bills. This issue has been going on for weeks.",
			Source:       "app",
			Timestamp:    daysAgo(2),
			CreatedAt:    now,
		},
		model.Review{
			ID:           "REV-3003",
			CustomerID:   "CUST-2003",
			CustomerName: "Li Wei",
			Rating:       2,
			Sentiment:    "negative",
			Category:     "service",
			ReviewText:   "My payment has been stuck for two days and support keeps giving me scripted answers. Very frustrating complaint process.",
			Source:       "website",
			Timestamp:    daysAgo(2),
			CreatedAt:    now,
		},
		model.Review{
			ID:           "REV-3004",
			CustomerID:   "CUST-2006",
			CustomerName: "Sophie Martin",
			Rating:       5,
			Sentiment:    "positive",
			Category:     "service",
			ReviewText:   "Branch staff resolved my issue in minutes. Great experience overall.",
			Source:       "website",
			Timestamp:    daysAgo(5),
			CreatedAt:    now,
		},
		model.Review{
			ID:           "REV-3005",
			CustomerID:   "CUST-2007",
			CustomerName: "Daniel Brooks",
			Rating:       3,
			Sentiment:    "neutral",
			Category:     "general",
			ReviewText:   "App works fine most of the time. Some screens load slowly.",
			Source:       "social_media",
			Timestamp:    daysAgo(6),
			CreatedAt:    now,
		},
		model.Review{
			ID:           "REV-3006",
			CustomerID:   "CUST-2008",
			CustomerName: "Fatima Al-Rashid",
			Rating:       1,
			Sentiment:    "negative",
			Category:     "fraud_concern",
			ReviewText:   "Someone tried to scam me using a fake bank warning SMS. The bank should warn customers about these scams proactively.",
			Source:       "email",
			Timestamp:    daysAgo(3),
			CreatedAt:    now,
		},
	}

	txnColl := db.Collection("transactions")
	if _, err := txnColl.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear transactions: %v", err)
	}
	res, err := txnColl.InsertMany(ctx, transactions)
	if err != nil {
		log.Fatalf("Failed to seed transactions: %v", err)
	}
	fmt.Printf("Seeded %d transactions\n", len(res.InsertedIDs))

	reviewColl := db.Collection("reviews")
	if _, err := reviewColl.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear reviews: %v", err)
	}
	res, err = reviewColl.InsertMany(ctx, reviews)
	if err != nil {
		log.Fatalf("Failed to seed reviews: %v", err)
	}
	fmt.Printf("Seeded %d reviews\n", len(res.InsertedIDs))

	fmt.Println("Seed complete")
}
