package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/queue"
)

// Store slices used by the CMS bridge. The sync direction is one-way: CMS
// entries are upserted into the primary schema keyed by their CMS entry id.

type ArtistSyncStore interface {
	UpsertByCms(ctx context.Context, a *model.Artist) error
	GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error)
	DeleteByCmsID(ctx context.Context, cmsID int64) error
}

type ArtworkSyncStore interface {
	UpsertByCms(ctx context.Context, w *model.Artwork) (uint64, error)
	GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error)
	DeleteByCmsID(ctx context.Context, cmsID int64) error
	ReplaceImages(ctx context.Context, artworkID uint64, images []model.ArtworkImage) error
}

type CollectionSyncStore interface {
	UpsertByCms(ctx context.Context, c *model.Collection) (uint64, error)
	GetIDByCmsID(ctx context.Context, cmsID int64) (uint64, error)
	DeleteByCmsID(ctx context.Context, cmsID int64) error
	SetArtworks(ctx context.Context, collectionID uint64, artworkIDs []uint64) error
	AddArtwork(ctx context.Context, collectionID, artworkID uint64) error
}

type ArticleSyncStore interface {
	UpsertByCms(ctx context.Context, a *model.Article) error
	DeleteByCmsID(ctx context.Context, cmsID int64) error
}

// CMS lifecycle events accepted by the bridge.
const (
	cmsEntryCreate = "entry.create"
	cmsEntryUpdate = "entry.update"
	cmsEntryDelete = "entry.delete"
)

// CmsSyncService replicates CMS webhook events into the primary database.
// Upserts are idempotent, so at-least-once delivery from the broker is safe;
// ordering per entity is the consumer's responsibility.
type CmsSyncService struct {
	artists     ArtistSyncStore
	artworks    ArtworkSyncStore
	collections CollectionSyncStore
	articles    ArticleSyncStore
}

func NewCmsSyncService(artists ArtistSyncStore, artworks ArtworkSyncStore, collections CollectionSyncStore, articles ArticleSyncStore) *CmsSyncService {
	return &CmsSyncService{artists: artists, artworks: artworks, collections: collections, articles: articles}
}

// Apply routes a single CMS event to the matching entity handler. Unknown
// models are logged and dropped so new CMS content types cannot wedge the
// queue.
func (s *CmsSyncService) Apply(ctx context.Context, ev queue.CmsEvent) error {
	switch ev.Event {
	case cmsEntryCreate, cmsEntryUpdate, cmsEntryDelete:
	default:
		return fmt.Errorf("unknown event %q", ev.Event)
	}
	switch ev.Model {
	case "artist":
		return s.syncArtist(ctx, ev)
	case "artwork":
		return s.syncArtwork(ctx, ev)
	case "collection":
		return s.syncCollection(ctx, ev)
	case "article":
		return s.syncArticle(ctx, ev)
	default:
		log.Printf("cms-sync: unhandled model %q", ev.Model)
		return nil
	}
}

// cmsMedia is the media object shape the CMS embeds in entries.
type cmsMedia struct {
	URL    string  `json:"url"`
	Hash   string  `json:"hash"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Ext    string  `json:"ext"`
	Mime   string  `json:"mime"`
	Size   float64 `json:"size"` // kilobytes
}

func mediaURL(m *cmsMedia) *string {
	if m == nil || m.URL == "" {
		return nil
	}
	return &m.URL
}

type cmsRef struct {
	ID int64 `json:"id"`
}

func (s *CmsSyncService) syncArtist(ctx context.Context, ev queue.CmsEvent) error {
	var e struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Slug        string    `json:"slug"`
		Bio         *string   `json:"bio"`
		Statement   *string   `json:"statement"`
		Location    *string   `json:"location"`
		Website     *string   `json:"website"`
		Email       *string   `json:"email"`
		PhoneNumber *string   `json:"phoneNumber"`
		Profile     *cmsMedia `json:"profileImage"`
		Featured    bool      `json:"featured"`
		Verified    bool      `json:"verified"`
	}
	if err := json.Unmarshal(ev.Entry, &e); err != nil {
		return fmt.Errorf("decode artist entry: %w", err)
	}
	if e.ID == 0 {
		return fmt.Errorf("artist entry has no id")
	}
	if ev.Event == cmsEntryDelete {
		return s.artists.DeleteByCmsID(ctx, e.ID)
	}
	return s.artists.UpsertByCms(ctx, &model.Artist{
		CmsID:           &e.ID,
		Slug:            e.Slug,
		Name:            e.Name,
		Bio:             e.Bio,
		Statement:       e.Statement,
		Location:        e.Location,
		Website:         e.Website,
		Email:           e.Email,
		Phone:           e.PhoneNumber,
		ProfileImageURL: mediaURL(e.Profile),
		Featured:        e.Featured,
		Verified:        e.Verified,
	})
}

func (s *CmsSyncService) syncArtwork(ctx context.Context, ev queue.CmsEvent) error {
	var e struct {
		ID          int64      `json:"id"`
		Title       string     `json:"title"`
		Slug        string     `json:"slug"`
		Description *string    `json:"description"`
		Artist      *cmsRef    `json:"artist"`
		Medium      string     `json:"medium"`
		Style       *string    `json:"style"`
		Year        *int       `json:"year"`
		Width       *float64   `json:"width"`
		Height      *float64   `json:"height"`
		Depth       *float64   `json:"depth"`
		Price       float64    `json:"price"`
		Currency    string     `json:"currency"`
		Status      string     `json:"status"`
		Featured    bool       `json:"featured"`
		Edition     *string    `json:"edition"`
		Materials   *string    `json:"materials"`
		Signature   *string    `json:"signature"`
		Certificate bool       `json:"certificate"`
		Framed      bool       `json:"framed"`
		Images      []cmsMedia `json:"images"`
		Collections []cmsRef   `json:"collections"`
	}
	if err := json.Unmarshal(ev.Entry, &e); err != nil {
		return fmt.Errorf("decode artwork entry: %w", err)
	}
	if e.ID == 0 {
		return fmt.Errorf("artwork entry has no id")
	}
	if ev.Event == cmsEntryDelete {
		return s.artworks.DeleteByCmsID(ctx, e.ID)
	}

	if e.Artist == nil || e.Artist.ID == 0 {
		log.Printf("cms-sync: artwork %q has no artist, skipping", e.Title)
		return nil
	}
	artistID, err := s.artists.GetIDByCmsID(ctx, e.Artist.ID)
	if err != nil {
		// The artist entry may simply not have synced yet; skip rather than
		// poison the lane. The next artwork update retries the resolution.
		log.Printf("cms-sync: artwork %q references unknown artist cms_id=%d, skipping", e.Title, e.Artist.ID)
		return nil
	}

	w := model.Artwork{
		CmsID:       &e.ID,
		ArtistID:    artistID,
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Medium:      orDefault(e.Medium, "OTHER"),
		Style:       e.Style,
		Year:        e.Year,
		WidthCm:     e.Width,
		HeightCm:    e.Height,
		DepthCm:     e.Depth,
		PriceCents:  int64(math.Round(e.Price * 100)),
		Currency:    orDefault(e.Currency, "USD"),
		Status:      orDefault(e.Status, model.ArtworkAvailable),
		Featured:    e.Featured,
		Edition:     e.Edition,
		Materials:   e.Materials,
		Signature:   e.Signature,
		Certificate: e.Certificate,
		Framed:      e.Framed,
	}
	artworkID, err := s.artworks.UpsertByCms(ctx, &w)
	if err != nil {
		return err
	}

	if e.Images != nil {
		images := make([]model.ArtworkImage, 0, len(e.Images))
		for i, img := range e.Images {
			typ := model.ImageAlternate
			if i == 0 {
				typ = model.ImageMain
			}
			publicID := img.Hash
			if publicID == "" {
				publicID = fmt.Sprintf("cms-%d-%d", e.ID, i)
			}
			images = append(images, model.ArtworkImage{
				PublicID:  publicID,
				URL:       img.URL,
				SecureURL: strings.Replace(img.URL, "http://", "https://", 1),
				Width:     img.Width,
				Height:    img.Height,
				Format:    imageFormat(img),
				SizeBytes: int64(math.Round(img.Size * 1024)),
				Type:      typ,
			})
		}
		if err := s.artworks.ReplaceImages(ctx, artworkID, images); err != nil {
			return err
		}
	}

	if e.Collections != nil {
		for _, ref := range e.Collections {
			colID, err := s.collections.GetIDByCmsID(ctx, ref.ID)
			if err != nil {
				continue
			}
			// Membership ordering is owned by the collection entry; artwork
			// events only ensure the link exists.
			if err := s.collections.AddArtwork(ctx, colID, artworkID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *CmsSyncService) syncCollection(ctx context.Context, ev queue.CmsEvent) error {
	var e struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		Slug        string    `json:"slug"`
		Description *string   `json:"description"`
		Cover       *cmsMedia `json:"coverImage"`
		Featured    bool      `json:"featured"`
		Artworks    []cmsRef  `json:"artworks"`
	}
	if err := json.Unmarshal(ev.Entry, &e); err != nil {
		return fmt.Errorf("decode collection entry: %w", err)
	}
	if e.ID == 0 {
		return fmt.Errorf("collection entry has no id")
	}
	if ev.Event == cmsEntryDelete {
		return s.collections.DeleteByCmsID(ctx, e.ID)
	}

	colID, err := s.collections.UpsertByCms(ctx, &model.Collection{
		CmsID:         &e.ID,
		Slug:          e.Slug,
		Title:         e.Title,
		Description:   e.Description,
		CoverImageURL: mediaURL(e.Cover),
		Featured:      e.Featured,
	})
	if err != nil {
		return err
	}

	if e.Artworks != nil {
		ids := make([]uint64, 0, len(e.Artworks))
		for _, ref := range e.Artworks {
			id, err := s.artworks.GetIDByCmsID(ctx, ref.ID)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if err := s.collections.SetArtworks(ctx, colID, ids); err != nil {
			return err
		}
	}
	return nil
}

func (s *CmsSyncService) syncArticle(ctx context.Context, ev queue.CmsEvent) error {
	var e struct {
		ID            int64     `json:"id"`
		Title         string    `json:"title"`
		Slug          string    `json:"slug"`
		Content       string    `json:"content"`
		Excerpt       *string   `json:"excerpt"`
		Cover         *cmsMedia `json:"coverImage"`
		Author        *string   `json:"author"`
		Category      *string   `json:"category"`
		PublishedDate *string   `json:"publishedDate"`
		Featured      bool      `json:"featured"`
	}
	if err := json.Unmarshal(ev.Entry, &e); err != nil {
		return fmt.Errorf("decode article entry: %w", err)
	}
	if e.ID == 0 {
		return fmt.Errorf("article entry has no id")
	}
	if ev.Event == cmsEntryDelete {
		return s.articles.DeleteByCmsID(ctx, e.ID)
	}

	var published *time.Time
	if e.PublishedDate != nil && *e.PublishedDate != "" {
		if t, err := time.Parse(time.RFC3339, *e.PublishedDate); err == nil {
			published = &t
		}
	}
	return s.articles.UpsertByCms(ctx, &model.Article{
		CmsID:         &e.ID,
		Slug:          e.Slug,
		Title:         e.Title,
		Content:       e.Content,
		Excerpt:       e.Excerpt,
		CoverImageURL: mediaURL(e.Cover),
		Author:        e.Author,
		Category:      e.Category,
		PublishedAt:   published,
		Featured:      e.Featured,
	})
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.ToUpper(v)
}

func imageFormat(m cmsMedia) string {
	if m.Ext != "" {
		return strings.TrimPrefix(m.Ext, ".")
	}
	if i := strings.Index(m.Mime, "/"); i >= 0 {
		return m.Mime[i+1:]
	}
	return "jpg"
}
