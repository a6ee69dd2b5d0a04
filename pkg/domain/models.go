package domain

import (
	"time"
)

type Region string

const (
	RegionUS Region = "US"
	RegionCN Region = "CN"
)

type Language string

const (
	LanguageEN Language = "EN"
	LanguageZH Language = "ZH"
)

type ReadingStatus string

const (
	ReadingPending   ReadingStatus = "PENDING"
	ReadingCompleted ReadingStatus = "COMPLETED"
	ReadingFailed    ReadingStatus = "FAILED"
)

type TransactionType string

const (
	TransactionSingle   TransactionType = "SINGLE"
	TransactionBundle   TransactionType = "BUNDLE"
	TransactionLifetime TransactionType = "LIFETIME"
	TransactionTip      TransactionType = "TIP"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "STRIPE"
	ProviderAlipay PaymentProvider = "ALIPAY"
	ProviderWechat PaymentProvider = "WECHAT"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

type User struct {
	ID                       string     `json:"id" db:"id"`
	Email                    string     `json:"email" db:"email"`
	Region                   Region     `json:"region" db:"region"`
	FreeReadingsLeft         int        `json:"free_readings_left" db:"free_readings_left"`
	PaidReadingsLeft         int        `json:"paid_readings_left" db:"paid_readings_left"`
	IsLifetimeMember         bool       `json:"is_lifetime_member" db:"is_lifetime_member"`
	LifetimeMemberSince      *time.Time `json:"lifetime_member_since,omitempty" db:"lifetime_member_since"`
	LifetimeYearStart        *time.Time `json:"lifetime_year_start,omitempty" db:"lifetime_year_start"`
	LifetimeReadingsThisYear int        `json:"lifetime_readings_this_year" db:"lifetime_readings_this_year"`
	CreatedAt                time.Time  `json:"created_at" db:"created_at"`
}

type TarotCard struct {
	ID                int    `json:"id" db:"id"`
	CardNumber        int    `json:"card_number" db:"card_number"`
	Name              string `json:"name" db:"name"`
	NameZh            string `json:"name_zh" db:"name_zh"`
	Arcana            string `json:"arcana" db:"arcana"`
	MeaningUpright    string `json:"meaning_upright" db:"meaning_upright"`
	MeaningReversed   string `json:"meaning_reversed" db:"meaning_reversed"`
	MeaningUprightZh  string `json:"meaning_upright_zh" db:"meaning_upright_zh"`
	MeaningReversedZh string `json:"meaning_reversed_zh" db:"meaning_reversed_zh"`
	ImageURL          string `json:"image_url" db:"image_url"`
}

type Reading struct {
	ID             string        `json:"id" db:"id"`
	UserID         string        `json:"user_id" db:"user_id"`
	Question       string        `json:"question" db:"question"`
	Language       Language      `json:"language" db:"language"`
	Status         ReadingStatus `json:"status" db:"status"`
	Interpretation *string       `json:"interpretation,omitempty" db:"interpretation"`
	AIModel        *string       `json:"ai_model,omitempty" db:"ai_model"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	InterpretedAt  *time.Time    `json:"interpreted_at,omitempty" db:"interpreted_at"`
}

type DrawnCard struct {
	ReadingID  string `json:"reading_id" db:"reading_id"`
	CardID     int    `json:"card_id" db:"card_id"`
	Position   int    `json:"position" db:"position"`
	IsReversed bool   `json:"is_reversed" db:"is_reversed"`
}

// DrawnCardDetail joins a drawn card with its static card row.
type DrawnCardDetail struct {
	DrawnCard
	Card TarotCard `json:"card"`
}

// ReadingWithCards is the poll target: the reading plus its three cards in
// position order and the owner identity the client needs for display.
type ReadingWithCards struct {
	Reading
	Cards      []DrawnCardDetail `json:"drawn_cards"`
	UserEmail  string            `json:"user_email"`
	UserRegion Region            `json:"user_region"`
}

type Transaction struct {
	ID                string          `json:"id" db:"id"`
	UserID            string          `json:"user_id" db:"user_id"`
	Type              TransactionType `json:"type" db:"type"`
	Amount            float64         `json:"amount" db:"amount"`
	Currency          Currency        `json:"currency" db:"currency"`
	Provider          PaymentProvider `json:"provider" db:"provider"`
	Status            PaymentStatus   `json:"status" db:"status"`
	ReadingsGranted   int             `json:"readings_granted" db:"readings_granted"`
	IsLifetimeUpgrade bool            `json:"is_lifetime_upgrade" db:"is_lifetime_upgrade"`
	ProviderOrderID   string          `json:"provider_order_id" db:"provider_order_id"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

type Referral struct {
	ID            string    `json:"id" db:"id"`
	ReferrerID    string    `json:"referrer_id" db:"referrer_id"`
	ReferredID    string    `json:"referred_id" db:"referred_id"`
	RewardGranted bool      `json:"reward_granted" db:"reward_granted"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
