package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/importer"
	"github.com/danger-5344/templa-socialV2/internal/app/model"
	"github.com/danger-5344/templa-socialV2/internal/app/repository"
	metrics "github.com/danger-5344/templa-socialV2/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ImportSummary reports the outcome of one catalog import batch.
type ImportSummary struct {
	NetworksCreated int `json:"networks_created"`
	OffersCreated   int `json:"offers_created"`
	LinksCreated    int `json:"links_created"`
	LinksUpdated    int `json:"links_updated"`
	RowsSkipped     int `json:"rows_skipped"`
}

// Message renders the summary as a single line for the user.
func (s ImportSummary) Message() string {
	return fmt.Sprintf("Import complete: %d networks, %d offers, %d links created, %d links updated, %d rows skipped.",
		s.NetworksCreated, s.OffersCreated, s.LinksCreated, s.LinksUpdated, s.RowsSkipped)
}

// AddOfferLinkInput captures a single offer link created by hand.
type AddOfferLinkInput struct {
	NetworkID uint
	OfferName string
	URL       string
	IsActive  bool
	UserID    string
}

// CatalogService manages offer networks, offers and their links.
type CatalogService interface {
	// Import reconciles the rows against the stored catalog. Row problems are
	// counted as skipped; only reader or storage failures abort the batch.
	Import(ctx context.Context, rows importer.RowReader, userID string) (ImportSummary, error)
	AddOfferLink(ctx context.Context, input AddOfferLinkInput) (*model.OfferLink, error)
	SearchLinks(ctx context.Context, term string, limit int) ([]model.OfferLink, error)
	ListNetworks(ctx context.Context) ([]model.OfferNetwork, error)
}

// CatalogOptions tunes the catalog service.
type CatalogOptions struct {
	BatchSize int
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

type catalogService struct {
	repo      repository.CatalogRepository
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewCatalogService returns a CatalogService backed by the given repository.
func NewCatalogService(repo repository.CatalogRepository, opts CatalogOptions) CatalogService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		repo:      repo,
		batchSize: opts.BatchSize,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

type stagedOffer struct {
	key   model.OfferKey
	offer *model.Offer
}

type stagedLink struct {
	key  model.OfferKey
	link *model.OfferLink
}

// catalogPlan is the in-memory working set of one import batch.
type catalogPlan struct {
	networks map[string]*model.OfferNetwork
	offers   map[model.OfferKey]*model.Offer
	links    map[model.OfferKey]*model.OfferLink
	urls     map[string]model.OfferKey

	newNetworks []*model.OfferNetwork
	newOffers   []stagedOffer
	newLinks    []stagedLink
	dirty       []*model.OfferLink
	dirtyIDs    map[uint]struct{}

	summary ImportSummary
}

func (s *catalogService) Import(ctx context.Context, rows importer.RowReader, userID string) (ImportSummary, error) {
	started := time.Now()
	defer rows.Close()

	plan, err := s.loadPlan(ctx)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("load catalog: %w", err)
	}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportSummary{}, fmt.Errorf("read rows: %w", err)
		}
		plan.add(row, userID)
	}

	err = s.repo.WithTx(ctx, func(tx repository.CatalogRepository) error {
		return s.apply(ctx, tx, plan)
	})
	if err != nil {
		return ImportSummary{}, fmt.Errorf("apply catalog import: %w", err)
	}

	summary := plan.summary
	created := summary.NetworksCreated + summary.OffersCreated + summary.LinksCreated
	s.metrics.RecordImport(created, summary.LinksUpdated, summary.RowsSkipped, time.Since(started).Seconds())
	s.logger.Info("catalog import finished",
		zap.String("user_id", userID),
		zap.Int("networks_created", summary.NetworksCreated),
		zap.Int("offers_created", summary.OffersCreated),
		zap.Int("links_created", summary.LinksCreated),
		zap.Int("links_updated", summary.LinksUpdated),
		zap.Int("rows_skipped", summary.RowsSkipped),
		zap.Duration("took", time.Since(started)),
	)
	return summary, nil
}

func (s *catalogService) loadPlan(ctx context.Context) (*catalogPlan, error) {
	networks, err := s.repo.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	offers, err := s.repo.ListOffers(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, err
	}

	plan := &catalogPlan{
		networks: make(map[string]*model.OfferNetwork, len(networks)),
		offers:   make(map[model.OfferKey]*model.Offer, len(offers)),
		links:    make(map[model.OfferKey]*model.OfferLink, len(links)),
		urls:     make(map[string]model.OfferKey, len(links)),
		dirtyIDs: make(map[uint]struct{}),
	}

	networkNames := make(map[uint]string, len(networks))
	for i := range networks {
		n := &networks[i]
		plan.networks[n.Name] = n
		networkNames[n.ID] = n.Name
	}

	offerKeys := make(map[uint]model.OfferKey, len(offers))
	for i := range offers {
		o := &offers[i]
		key := model.OfferKey{Network: networkNames[o.NetworkID], Offer: o.Name}
		plan.offers[key] = o
		offerKeys[o.ID] = key
	}

	for i := range links {
		l := &links[i]
		key, ok := offerKeys[l.OfferID]
		if !ok {
			continue
		}
		plan.links[key] = l
		plan.urls[l.URL] = key
	}
	return plan, nil
}

func (p *catalogPlan) add(row importer.Row, userID string) {
	if !row.Complete() {
		p.summary.RowsSkipped++
		return
	}

	key := model.OfferKey{Network: row.Network, Offer: row.Offer}
	if owner, taken := p.urls[row.URL]; taken && owner != key {
		p.summary.RowsSkipped++
		return
	}

	if _, ok := p.networks[row.Network]; !ok {
		n := &model.OfferNetwork{Name: row.Network}
		p.networks[row.Network] = n
		p.newNetworks = append(p.newNetworks, n)
	}

	if _, ok := p.offers[key]; !ok {
		o := &model.Offer{Name: row.Offer}
		p.offers[key] = o
		p.newOffers = append(p.newOffers, stagedOffer{key: key, offer: o})
	}

	link, ok := p.links[key]
	if !ok {
		l := &model.OfferLink{URL: row.URL, IsActive: row.IsActive, CreatedBy: userID}
		p.links[key] = l
		p.urls[row.URL] = key
		p.newLinks = append(p.newLinks, stagedLink{key: key, link: l})
		return
	}

	if link.URL == row.URL && link.IsActive == row.IsActive {
		return
	}
	if link.URL != row.URL {
		delete(p.urls, link.URL)
		p.urls[row.URL] = key
		link.URL = row.URL
	}
	link.IsActive = row.IsActive

	if link.ID == 0 {
		// staged in this batch, the insert picks up the change
		return
	}
	p.summary.LinksUpdated++
	if _, seen := p.dirtyIDs[link.ID]; !seen {
		p.dirtyIDs[link.ID] = struct{}{}
		p.dirty = append(p.dirty, link)
	}
}

// apply writes the plan in dependency order. Bulk inserts do not hand back
// reliable IDs once conflicts are ignored, so each level is reloaded before
// the next one references it.
func (s *catalogService) apply(ctx context.Context, tx repository.CatalogRepository, p *catalogPlan) error {
	n, err := tx.InsertNetworks(ctx, p.newNetworks, s.batchSize)
	if err != nil {
		return fmt.Errorf("insert networks: %w", err)
	}
	p.summary.NetworksCreated = int(n)

	if len(p.newNetworks) > 0 {
		names := make([]string, len(p.newNetworks))
		for i, nw := range p.newNetworks {
			names[i] = nw.Name
		}
		persisted, err := tx.NetworksByName(ctx, names)
		if err != nil {
			return fmt.Errorf("reload networks: %w", err)
		}
		for i := range persisted {
			if staged, ok := p.networks[persisted[i].Name]; ok {
				staged.ID = persisted[i].ID
			}
		}
	}

	offers := make([]*model.Offer, 0, len(p.newOffers))
	networkIDs := make([]uint, 0, len(p.newOffers))
	seenNetwork := make(map[uint]struct{})
	for _, staged := range p.newOffers {
		nw := p.networks[staged.key.Network]
		if nw == nil || nw.ID == 0 {
			return fmt.Errorf("network %q was not persisted", staged.key.Network)
		}
		staged.offer.NetworkID = nw.ID
		offers = append(offers, staged.offer)
		if _, ok := seenNetwork[nw.ID]; !ok {
			seenNetwork[nw.ID] = struct{}{}
			networkIDs = append(networkIDs, nw.ID)
		}
	}

	n, err = tx.InsertOffers(ctx, offers, s.batchSize)
	if err != nil {
		return fmt.Errorf("insert offers: %w", err)
	}
	p.summary.OffersCreated = int(n)

	if len(networkIDs) > 0 {
		persisted, err := tx.OffersByNetwork(ctx, networkIDs)
		if err != nil {
			return fmt.Errorf("reload offers: %w", err)
		}
		byNetwork := make(map[uint]map[string]uint, len(networkIDs))
		for _, o := range persisted {
			if byNetwork[o.NetworkID] == nil {
				byNetwork[o.NetworkID] = make(map[string]uint)
			}
			byNetwork[o.NetworkID][o.Name] = o.ID
		}
		for _, staged := range p.newOffers {
			if id, ok := byNetwork[staged.offer.NetworkID][staged.offer.Name]; ok {
				staged.offer.ID = id
			}
		}
	}

	for _, link := range p.dirty {
		if err := tx.UpdateLink(ctx, link); err != nil {
			return fmt.Errorf("update link %d: %w", link.ID, err)
		}
	}

	links := make([]*model.OfferLink, 0, len(p.newLinks))
	for _, staged := range p.newLinks {
		offer := p.offers[staged.key]
		if offer == nil || offer.ID == 0 {
			return fmt.Errorf("offer %q/%q was not persisted", staged.key.Network, staged.key.Offer)
		}
		staged.link.OfferID = offer.ID
		links = append(links, staged.link)
	}

	n, err = tx.InsertLinks(ctx, links, s.batchSize)
	if err != nil {
		return fmt.Errorf("insert links: %w", err)
	}
	p.summary.LinksCreated = int(n)
	p.summary.RowsSkipped += len(links) - int(n)
	return nil
}

func (s *catalogService) AddOfferLink(ctx context.Context, input AddOfferLinkInput) (*model.OfferLink, error) {
	input.OfferName = strings.TrimSpace(input.OfferName)
	input.URL = strings.TrimSpace(input.URL)
	if input.NetworkID == 0 || input.OfferName == "" || input.URL == "" {
		return nil, validationError("network, offer and url are required")
	}

	var link *model.OfferLink
	err := s.repo.WithTx(ctx, func(tx repository.CatalogRepository) error {
		network, err := tx.GetNetwork(ctx, input.NetworkID)
		if err != nil {
			return err
		}
		offer, err := tx.GetOrCreateOffer(ctx, network.ID, input.OfferName)
		if err != nil {
			return fmt.Errorf("resolve offer: %w", err)
		}
		exists, err := tx.LinkExistsForOffer(ctx, offer.ID)
		if err != nil {
			return err
		}
		if exists {
			return conflictError("offer %q already has a link", offer.Name)
		}

		link = &model.OfferLink{
			OfferID:   offer.ID,
			URL:       input.URL,
			IsActive:  input.IsActive,
			CreatedBy: input.UserID,
		}
		if err := tx.CreateLink(ctx, link); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return conflictError("url is already used by another offer")
			}
			return err
		}
		offer.Network = network
		link.Offer = offer
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add offer link: %w", err)
	}
	return link, nil
}

func (s *catalogService) SearchLinks(ctx context.Context, term string, limit int) ([]model.OfferLink, error) {
	links, err := s.repo.SearchActiveLinks(ctx, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}
	return links, nil
}

func (s *catalogService) ListNetworks(ctx context.Context) ([]model.OfferNetwork, error) {
	networks, err := s.repo.ListNetworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	return networks, nil
}
