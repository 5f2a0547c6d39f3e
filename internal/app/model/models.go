package model

// All lists the persisted models in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Platform{},
		&TrackingParamSet{},
		&PersonalizedTag{},
		&OfferNetwork{},
		&Offer{},
		&OfferLink{},
		&EmailTemplate{},
		&TemplateUsage{},
	}
}
