package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artspot/gallery-api/internal/model"
	"github.com/artspot/gallery-api/internal/queue"
	"github.com/artspot/gallery-api/internal/repository"
)

type stubArtistSync struct {
	upserts []model.Artist
	deletes []int64
	idByCms map[int64]uint64
}

func (s *stubArtistSync) UpsertByCms(_ context.Context, a *model.Artist) error {
	s.upserts = append(s.upserts, *a)
	return nil
}

func (s *stubArtistSync) GetIDByCmsID(_ context.Context, cmsID int64) (uint64, error) {
	id, ok := s.idByCms[cmsID]
	if !ok {
		return 0, repository.ErrArtistNotFound
	}
	return id, nil
}

func (s *stubArtistSync) DeleteByCmsID(_ context.Context, cmsID int64) error {
	s.deletes = append(s.deletes, cmsID)
	return nil
}

type stubArtworkSync struct {
	upserts []model.Artwork
	images  map[uint64][]model.ArtworkImage
	deletes []int64
	idByCms map[int64]uint64
	localID uint64
}

func (s *stubArtworkSync) UpsertByCms(_ context.Context, w *model.Artwork) (uint64, error) {
	s.upserts = append(s.upserts, *w)
	return s.localID, nil
}

func (s *stubArtworkSync) GetIDByCmsID(_ context.Context, cmsID int64) (uint64, error) {
	id, ok := s.idByCms[cmsID]
	if !ok {
		return 0, repository.ErrArtworkNotFound
	}
	return id, nil
}

func (s *stubArtworkSync) DeleteByCmsID(_ context.Context, cmsID int64) error {
	s.deletes = append(s.deletes, cmsID)
	return nil
}

func (s *stubArtworkSync) ReplaceImages(_ context.Context, artworkID uint64, images []model.ArtworkImage) error {
	if s.images == nil {
		s.images = map[uint64][]model.ArtworkImage{}
	}
	s.images[artworkID] = images
	return nil
}

type stubCollectionSync struct {
	upserts    []model.Collection
	deletes    []int64
	idByCms    map[int64]uint64
	localID    uint64
	membership map[uint64][]uint64
	appended   map[uint64][]uint64
}

func (s *stubCollectionSync) UpsertByCms(_ context.Context, c *model.Collection) (uint64, error) {
	s.upserts = append(s.upserts, *c)
	return s.localID, nil
}

func (s *stubCollectionSync) GetIDByCmsID(_ context.Context, cmsID int64) (uint64, error) {
	id, ok := s.idByCms[cmsID]
	if !ok {
		return 0, repository.ErrCollectionNotFound
	}
	return id, nil
}

func (s *stubCollectionSync) DeleteByCmsID(_ context.Context, cmsID int64) error {
	s.deletes = append(s.deletes, cmsID)
	return nil
}

func (s *stubCollectionSync) SetArtworks(_ context.Context, collectionID uint64, artworkIDs []uint64) error {
	if s.membership == nil {
		s.membership = map[uint64][]uint64{}
	}
	s.membership[collectionID] = artworkIDs
	return nil
}

func (s *stubCollectionSync) AddArtwork(_ context.Context, collectionID, artworkID uint64) error {
	if s.appended == nil {
		s.appended = map[uint64][]uint64{}
	}
	s.appended[collectionID] = append(s.appended[collectionID], artworkID)
	return nil
}

type stubArticleSync struct {
	upserts []model.Article
	deletes []int64
}

func (s *stubArticleSync) UpsertByCms(_ context.Context, a *model.Article) error {
	s.upserts = append(s.upserts, *a)
	return nil
}

func (s *stubArticleSync) DeleteByCmsID(_ context.Context, cmsID int64) error {
	s.deletes = append(s.deletes, cmsID)
	return nil
}

func newSyncFixture() (*CmsSyncService, *stubArtistSync, *stubArtworkSync, *stubCollectionSync, *stubArticleSync) {
	artists := &stubArtistSync{idByCms: map[int64]uint64{}}
	artworks := &stubArtworkSync{idByCms: map[int64]uint64{}, localID: 50}
	collections := &stubCollectionSync{idByCms: map[int64]uint64{}, localID: 60}
	articles := &stubArticleSync{}
	return NewCmsSyncService(artists, artworks, collections, articles), artists, artworks, collections, articles
}

func cmsEvent(t *testing.T, event, mdl string, entry any) queue.CmsEvent {
	t.Helper()
	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	return queue.CmsEvent{Event: event, Model: mdl, Entry: raw}
}

func TestApplyArtistUpsert(t *testing.T) {
	svc, artists, _, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.update", "artist", map[string]any{
		"id":   3,
		"name": "Hilma af Klint",
		"slug": "hilma-af-klint",
		"bio":  "Pioneer of abstraction.",
		"profileImage": map[string]any{"url": "http://cdn.example.com/hilma.jpg"},
		"featured":     true,
	})
	require.NoError(t, svc.Apply(context.Background(), ev))

	require.Len(t, artists.upserts, 1)
	got := artists.upserts[0]
	assert.Equal(t, int64(3), *got.CmsID)
	assert.Equal(t, "hilma-af-klint", got.Slug)
	assert.Equal(t, "Pioneer of abstraction.", *got.Bio)
	assert.Equal(t, "http://cdn.example.com/hilma.jpg", *got.ProfileImageURL)
	assert.True(t, got.Featured)
}

func TestApplyArtistDelete(t *testing.T) {
	svc, artists, _, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.delete", "artist", map[string]any{"id": 3})
	require.NoError(t, svc.Apply(context.Background(), ev))

	assert.Equal(t, []int64{3}, artists.deletes)
	assert.Empty(t, artists.upserts)
}

func TestApplyArtworkUpsertWithImages(t *testing.T) {
	svc, artists, artworks, _, _ := newSyncFixture()
	artists.idByCms[3] = 11

	ev := cmsEvent(t, "entry.create", "artwork", map[string]any{
		"id":     9,
		"title":  "The Swan",
		"slug":   "the-swan",
		"artist": map[string]any{"id": 3},
		"medium": "painting",
		"price":  12500.50,
		"status": "available",
		"images": []map[string]any{
			{"url": "http://cdn.example.com/swan-1.jpg", "hash": "swan_1", "width": 1200, "height": 900, "ext": ".jpg", "size": 240.5},
			{"url": "http://cdn.example.com/swan-2.jpg", "hash": "swan_2", "mime": "image/png"},
		},
	})
	require.NoError(t, svc.Apply(context.Background(), ev))

	require.Len(t, artworks.upserts, 1)
	w := artworks.upserts[0]
	assert.Equal(t, uint64(11), w.ArtistID)
	assert.Equal(t, int64(1250050), w.PriceCents)
	assert.Equal(t, "PAINTING", w.Medium)
	assert.Equal(t, model.ArtworkAvailable, w.Status)

	imgs := artworks.images[50]
	require.Len(t, imgs, 2)
	assert.Equal(t, model.ImageMain, imgs[0].Type)
	assert.Equal(t, model.ImageAlternate, imgs[1].Type)
	assert.Equal(t, "https://cdn.example.com/swan-1.jpg", imgs[0].SecureURL)
	assert.Equal(t, "jpg", imgs[0].Format)
	assert.Equal(t, "png", imgs[1].Format)
	assert.Equal(t, int64(246272), imgs[0].SizeBytes) // 240.5 KB
}

func TestApplyArtworkUnresolvedArtistSkips(t *testing.T) {
	svc, _, artworks, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.create", "artwork", map[string]any{
		"id":     9,
		"title":  "Orphan",
		"slug":   "orphan",
		"artist": map[string]any{"id": 404},
	})
	// unresolved artist is a skip, not a failure; the event gets acked
	require.NoError(t, svc.Apply(context.Background(), ev))
	assert.Empty(t, artworks.upserts)
}

func TestApplyArtworkLinksKnownCollections(t *testing.T) {
	svc, artists, _, collections, _ := newSyncFixture()
	artists.idByCms[3] = 11
	collections.idByCms[2] = 61

	ev := cmsEvent(t, "entry.update", "artwork", map[string]any{
		"id":     9,
		"title":  "The Swan",
		"slug":   "the-swan",
		"artist": map[string]any{"id": 3},
		"collections": []map[string]any{
			{"id": 2},
			{"id": 999}, // not synced yet, silently skipped
		},
	})
	require.NoError(t, svc.Apply(context.Background(), ev))

	assert.Equal(t, map[uint64][]uint64{61: {50}}, collections.appended)
}

func TestApplyCollectionMembership(t *testing.T) {
	svc, _, artworks, collections, _ := newSyncFixture()
	artworks.idByCms[9] = 51
	artworks.idByCms[10] = 52

	ev := cmsEvent(t, "entry.update", "collection", map[string]any{
		"id":    2,
		"title": "Nordic Light",
		"slug":  "nordic-light",
		"artworks": []map[string]any{
			{"id": 10},
			{"id": 9},
			{"id": 888}, // unknown artwork dropped
		},
	})
	require.NoError(t, svc.Apply(context.Background(), ev))

	require.Len(t, collections.upserts, 1)
	assert.Equal(t, "nordic-light", collections.upserts[0].Slug)
	// entry order preserved
	assert.Equal(t, []uint64{52, 51}, collections.membership[60])
}

func TestApplyArticleUpsert(t *testing.T) {
	svc, _, _, _, articles := newSyncFixture()

	ev := cmsEvent(t, "entry.create", "article", map[string]any{
		"id":            4,
		"title":         "Studio Visit",
		"slug":          "studio-visit",
		"content":       "We spent an afternoon at the studio.",
		"publishedDate": "2026-03-01T10:00:00Z",
	})
	require.NoError(t, svc.Apply(context.Background(), ev))

	require.Len(t, articles.upserts, 1)
	a := articles.upserts[0]
	assert.Equal(t, "studio-visit", a.Slug)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, 2026, a.PublishedAt.Year())
}

func TestApplyUnknownModelIsDropped(t *testing.T) {
	svc, _, _, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.create", "press-release", map[string]any{"id": 1})
	assert.NoError(t, svc.Apply(context.Background(), ev))
}

func TestApplyUnknownEventFails(t *testing.T) {
	svc, _, _, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.publish-preview", "artist", map[string]any{"id": 1})
	assert.Error(t, svc.Apply(context.Background(), ev))
}

func TestApplyEntryWithoutIDFails(t *testing.T) {
	svc, _, _, _, _ := newSyncFixture()

	ev := cmsEvent(t, "entry.create", "artist", map[string]any{"name": "No ID"})
	assert.Error(t, svc.Apply(context.Background(), ev))
}
