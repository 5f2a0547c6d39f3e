package model

import "time"

// OfferNetwork is an advertising network. Names are unique system-wide.
type OfferNetwork struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Offer belongs to exactly one network; (network, name) is unique.
type Offer struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	NetworkID uint          `json:"network_id" gorm:"not null;uniqueIndex:uk_offers_network_name,priority:1"`
	Name      string        `json:"name" gorm:"size:150;not null;uniqueIndex:uk_offers_network_name,priority:2"`
	Network   *OfferNetwork `json:"network,omitempty" gorm:"foreignKey:NetworkID"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// OfferLink is the single destination URL of an offer.
type OfferLink struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OfferID   uint      `json:"offer_id" gorm:"not null;uniqueIndex"`
	URL       string    `json:"url" gorm:"type:text;not null;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedBy string    `json:"created_by,omitempty" gorm:"size:64"`
	Offer     *Offer    `json:"offer,omitempty" gorm:"foreignKey:OfferID"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// OfferKey identifies an offer (and its link) by human-readable names.
type OfferKey struct {
	Network string
	Offer   string
}
