package repository

import (
	"context"

	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultInsertBatch = 500

// CatalogRepository defines the data access contract for offer networks,
// offers and offer links.
type CatalogRepository interface {
	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(repo CatalogRepository) error) error

	ListNetworks(ctx context.Context) ([]model.OfferNetwork, error)
	ListOffers(ctx context.Context) ([]model.Offer, error)
	ListLinks(ctx context.Context) ([]model.OfferLink, error)

	// Insert* skip rows that collide with an existing unique key and
	// report how many rows were actually written. IDs of the passed
	// structs must not be trusted afterwards; reload instead.
	InsertNetworks(ctx context.Context, networks []*model.OfferNetwork, batchSize int) (int64, error)
	InsertOffers(ctx context.Context, offers []*model.Offer, batchSize int) (int64, error)
	InsertLinks(ctx context.Context, links []*model.OfferLink, batchSize int) (int64, error)

	NetworksByName(ctx context.Context, names []string) ([]model.OfferNetwork, error)
	OffersByNetwork(ctx context.Context, networkIDs []uint) ([]model.Offer, error)
	UpdateLink(ctx context.Context, link *model.OfferLink) error

	GetNetwork(ctx context.Context, id uint) (*model.OfferNetwork, error)
	GetOrCreateOffer(ctx context.Context, networkID uint, name string) (*model.Offer, error)
	LinkExistsForOffer(ctx context.Context, offerID uint) (bool, error)
	CreateLink(ctx context.Context, link *model.OfferLink) error
	GetActiveLink(ctx context.Context, id uint) (*model.OfferLink, error)
	SearchActiveLinks(ctx context.Context, term string, limit int) ([]model.OfferLink, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository returns a GORM-backed CatalogRepository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(ctx context.Context, fn func(repo CatalogRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&catalogRepository{db: tx})
	})
}

func (r *catalogRepository) ListNetworks(ctx context.Context) ([]model.OfferNetwork, error) {
	var result []model.OfferNetwork
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) ListOffers(ctx context.Context) ([]model.Offer, error) {
	var result []model.Offer
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) ListLinks(ctx context.Context) ([]model.OfferLink, error) {
	var result []model.OfferLink
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) InsertNetworks(ctx context.Context, networks []*model.OfferNetwork, batchSize int) (int64, error) {
	if len(networks) == 0 {
		return 0, nil
	}
	return r.insertIgnoringConflicts(ctx, networks, batchSize)
}

func (r *catalogRepository) InsertOffers(ctx context.Context, offers []*model.Offer, batchSize int) (int64, error) {
	if len(offers) == 0 {
		return 0, nil
	}
	return r.insertIgnoringConflicts(ctx, offers, batchSize)
}

func (r *catalogRepository) InsertLinks(ctx context.Context, links []*model.OfferLink, batchSize int) (int64, error) {
	if len(links) == 0 {
		return 0, nil
	}
	return r.insertIgnoringConflicts(ctx, links, batchSize)
}

func (r *catalogRepository) insertIgnoringConflicts(ctx context.Context, value interface{}, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = defaultInsertBatch
	}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(value, batchSize)
	return result.RowsAffected, result.Error
}

func (r *catalogRepository) NetworksByName(ctx context.Context, names []string) ([]model.OfferNetwork, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var result []model.OfferNetwork
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) OffersByNetwork(ctx context.Context, networkIDs []uint) ([]model.Offer, error) {
	if len(networkIDs) == 0 {
		return nil, nil
	}
	var result []model.Offer
	if err := r.db.WithContext(ctx).Where("network_id IN ?", networkIDs).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) UpdateLink(ctx context.Context, link *model.OfferLink) error {
	result := r.db.WithContext(ctx).
		Model(&model.OfferLink{}).
		Where("id = ?", link.ID).
		Updates(map[string]interface{}{
			"url":       link.URL,
			"is_active": link.IsActive,
		})
	if result.Error != nil {
		return translate(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return ErrOfferLinkNotFound
	}
	return nil
}

func (r *catalogRepository) GetNetwork(ctx context.Context, id uint) (*model.OfferNetwork, error) {
	var network model.OfferNetwork
	if err := r.db.WithContext(ctx).First(&network, id).Error; err != nil {
		return nil, translate(err, ErrNetworkNotFound)
	}
	return &network, nil
}

func (r *catalogRepository) GetOrCreateOffer(ctx context.Context, networkID uint, name string) (*model.Offer, error) {
	offer := model.Offer{NetworkID: networkID, Name: name}
	err := r.db.WithContext(ctx).
		Where(model.Offer{NetworkID: networkID, Name: name}).
		FirstOrCreate(&offer).Error
	if err != nil {
		return nil, translate(err, nil)
	}
	return &offer, nil
}

func (r *catalogRepository) LinkExistsForOffer(ctx context.Context, offerID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.OfferLink{}).
		Where("offer_id = ?", offerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *catalogRepository) CreateLink(ctx context.Context, link *model.OfferLink) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error, nil)
}

func (r *catalogRepository) GetActiveLink(ctx context.Context, id uint) (*model.OfferLink, error) {
	var link model.OfferLink
	err := r.db.WithContext(ctx).
		Preload("Offer.Network").
		Where("id = ? AND is_active = ?", id, true).
		First(&link).Error
	if err != nil {
		return nil, translate(err, ErrOfferLinkNotFound)
	}
	return &link, nil
}

func (r *catalogRepository) SearchActiveLinks(ctx context.Context, term string, limit int) ([]model.OfferLink, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).
		Preload("Offer.Network").
		Joins("JOIN offers ON offers.id = offer_links.offer_id").
		Where("offer_links.is_active = ?", true)
	if term != "" {
		q = q.Where("offers.name ILIKE ?", "%"+term+"%")
	}

	var result []model.OfferLink
	if err := q.Order("offers.name ASC").Limit(limit).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
