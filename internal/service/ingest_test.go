package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/datatypes"

	"blockfeed/internal/client/indexer"
	"blockfeed/internal/content"
	"blockfeed/internal/models"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

type stubStore struct {
	repository.Repository
	saved          []models.Post
	hashtags       map[string][]string
	noContent      []string
	existing       map[string]struct{}
	postsByID      map[string]*models.Post
	failHashtags   bool
	hashtagsCalled int
}

func newStubStore() *stubStore {
	return &stubStore{
		hashtags:  map[string][]string{},
		existing:  map[string]struct{}{},
		postsByID: map[string]*models.Post{},
	}
}

func (s *stubStore) InsertPostIgnoreDuplicate(ctx context.Context, item *models.Post) (bool, error) {
	if _, ok := s.existing[item.ID]; ok {
		return false, nil
	}
	s.saved = append(s.saved, *item)
	s.existing[item.ID] = struct{}{}
	return true, nil
}

func (s *stubStore) SaveHashtags(ctx context.Context, postID string, names []string) error {
	s.hashtagsCalled++
	if s.failHashtags {
		return fmt.Errorf("hashtag storage down")
	}
	s.hashtags[postID] = names
	return nil
}

func (s *stubStore) InsertNoContentPost(ctx context.Context, postID string) error {
	s.noContent = append(s.noContent, postID)
	return nil
}

func (s *stubStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return s.postsByID[id], nil
}

func (s *stubStore) ExistingPostIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := s.existing[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

type regStore struct {
	repository.Repository
	feeds []models.Feed
}

func (s *regStore) ListFeeds(ctx context.Context) ([]models.Feed, error) { return s.feeds, nil }

func (s *regStore) UpdateFeedComposedIDs(ctx context.Context, feedID string, evm *string, tvm *string) error {
	return nil
}

func (s *regStore) ListBannedAddresses(ctx context.Context) ([]models.BannedAddress, error) {
	return nil, nil
}

func (s *regStore) ListPredefinedTexts(ctx context.Context) ([]models.PredefinedText, error) {
	return nil, nil
}

func (s *regStore) ListAdmins(ctx context.Context) ([]models.Admin, error) { return nil, nil }

type stubPublisher struct {
	channels []string
	payloads [][]byte
}

func (p *stubPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

const ingestFeedID = "0000000000000000000000000000000000000000000000000000000000000011"

// indexerServer serves /content with canned payloads and /broadcasts with
// canned pages, both wrapped in the indexer envelope.
func indexerServer(t *testing.T, contents map[string]any, pages ...[]indexer.Message) *httptest.Server {
	t.Helper()
	pageIdx := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data any
		switch r.URL.Path {
		case "/content":
			var req struct {
				MsgID string `json:"msgId"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			data = contents[req.MsgID]
		case "/broadcasts":
			if pageIdx < len(pages) {
				data = pages[pageIdx]
				pageIdx++
			} else {
				data = []indexer.Message{}
			}
		default:
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": true, "data": data})
	}))
}

func testRegistry(t *testing.T, commissions datatypes.JSONMap) (*registry.Registry, models.Feed) {
	t.Helper()
	store := &regStore{feeds: []models.Feed{{
		FeedID:      ingestFeedID,
		Title:       "test feed",
		Commissions: commissions,
	}}}
	reg := registry.New(store, nil, []string{"gm"})
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	if err := reg.RefreshModeration(context.Background()); err != nil {
		t.Fatalf("RefreshModeration: %v", err)
	}
	feed, ok := reg.Feed(ingestFeedID)
	if !ok {
		t.Fatal("test feed missing")
	}
	return reg, feed
}

func encodedContent(t *testing.T, text string) any {
	t.Helper()
	raw, err := content.Encode(1, 5, text)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	nums := make([]int, len(raw))
	for i, b := range raw {
		nums[i] = int(b)
	}
	return map[string]any{"msgId": "m", "corrupted": false, "content": nums}
}

func testMessage(id string, feed models.Feed, meta string) indexer.Message {
	return indexer.Message{
		MsgID:         id,
		CreatedAt:     1700000000,
		SenderAddress: "0x1111",
		Blockchain:    "ETHEREUM",
		FeedID:        *feed.EvmFeedID,
		Meta:          json.RawMessage(meta),
	}
}

func TestProcessMessageHappyPath(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	srv := indexerServer(t, map[string]any{"msg-1": encodedContent(t, "building the validator upgrade #venom")})
	defer srv.Close()

	store := newStubStore()
	svc := &IngestService{
		Store:    store,
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}
	post, err := svc.ProcessMessage(context.Background(), testMessage("msg-1", feed, `{"tx":{"to":"0xc0ffee"}}`))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if post.Banned || post.IsAutobanned || post.IsPredefined {
		t.Fatalf("expected clean post, got %+v", post)
	}
	if post.ContentText != "building the validator upgrade #venom" {
		t.Fatalf("unexpected content text %q", post.ContentText)
	}
	if post.FeedID == nil || *post.FeedID != ingestFeedID {
		t.Fatalf("feed not resolved: %+v", post.FeedID)
	}
	if post.ContractAddress != "0xc0ffee" {
		t.Fatalf("contract address not taken from tx.to: %q", post.ContractAddress)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one saved post, got %d", len(store.saved))
	}
	if tags := store.hashtags["msg-1"]; len(tags) != 1 || tags[0] != "venom" {
		t.Fatalf("hashtags not saved: %v", tags)
	}
}

func TestProcessMessageNoContent(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	srv := indexerServer(t, map[string]any{})
	defer srv.Close()

	store := newStubStore()
	svc := &IngestService{
		Store:    store,
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}
	post, err := svc.ProcessMessage(context.Background(), testMessage("msg-2", feed, `{}`))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !post.Banned || !post.IsAutobanned {
		t.Fatalf("missing content must ban the post: %+v", post)
	}
	if post.ContentText != content.SentinelNoContent {
		t.Fatalf("unexpected sentinel %q", post.ContentText)
	}
	if len(store.noContent) != 1 || store.noContent[0] != "msg-2" {
		t.Fatalf("no-content marker not recorded: %v", store.noContent)
	}
}

func TestProcessMessageCommission(t *testing.T) {
	reg, feed := testRegistry(t, datatypes.JSONMap{"ETHEREUM": "2"})
	srv := indexerServer(t, map[string]any{
		"msg-paid":  encodedContent(t, "paid exactly the required amount"),
		"msg-short": encodedContent(t, "underpaid by one base unit"),
		"msg-none":  encodedContent(t, "no payment attached at all"),
	})
	defer srv.Close()

	store := newStubStore()
	svc := &IngestService{
		Store:    store,
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}

	paid, err := svc.ProcessMessage(context.Background(),
		testMessage("msg-paid", feed, `{"extraPayment":"2000000000000000000","tx":{"to":"0xc"}}`))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !paid.IsCommissionValid || paid.Banned {
		t.Fatalf("exact payment must be valid: %+v", paid)
	}
	if paid.ExtraPayment != "2" {
		t.Fatalf("extra payment not scaled for display: %q", paid.ExtraPayment)
	}

	short, err := svc.ProcessMessage(context.Background(),
		testMessage("msg-short", feed, `{"extraPayment":"1999999999999999999","tx":{"to":"0xc"}}`))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if short.IsCommissionValid || !short.Banned || !short.IsAutobanned {
		t.Fatalf("underpayment must ban: %+v", short)
	}

	none, err := svc.ProcessMessage(context.Background(),
		testMessage("msg-none", feed, `{"tx":{"to":"0xc"}}`))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if none.IsCommissionValid || !none.Banned {
		t.Fatalf("missing payment must ban when commission is due: %+v", none)
	}
}

func TestProcessMessageHashtagFailureIsFailSoft(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	srv := indexerServer(t, map[string]any{"msg-3": encodedContent(t, "shipping the indexer bridge #bridge")})
	defer srv.Close()

	store := newStubStore()
	store.failHashtags = true
	svc := &IngestService{
		Store:    store,
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}
	if _, err := svc.ProcessMessage(context.Background(), testMessage("msg-3", feed, `{}`)); err != nil {
		t.Fatalf("hashtag failure must not fail ingestion: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatal("post must be saved without hashtags")
	}
}

func TestProcessMessageBroadcastsReply(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	srv := indexerServer(t, map[string]any{
		"msg-reply": encodedContent(t, `<reply-to id="msg-orig" />completely agree with this take`),
	})
	defer srv.Close()

	store := newStubStore()
	store.postsByID["msg-orig"] = &models.Post{ID: "msg-orig", Sender: "0x2222"}
	pub := &stubPublisher{}
	svc := &IngestService{
		Store:     store,
		Indexer:   indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry:  reg,
		Publisher: pub,
	}
	if _, err := svc.ProcessMessage(context.Background(), testMessage("msg-reply", feed, `{}`)); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(pub.channels) != 1 || pub.channels[0] != DefaultReplyChannel {
		t.Fatalf("expected one reply publication, got %v", pub.channels)
	}
	var envelope struct {
		Data struct {
			OriginalPost models.Post `json:"originalPost"`
			ReplyPost    models.Post `json:"replyPost"`
		} `json:"data"`
	}
	if err := json.Unmarshal(pub.payloads[0], &envelope); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if envelope.Data.OriginalPost.ID != "msg-orig" || envelope.Data.ReplyPost.ID != "msg-reply" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestUpdateFeedStopsAtWatermark(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	page := []indexer.Message{
		testMessage("msg-new", feed, `{}`),
		testMessage("msg-known", feed, `{}`),
		testMessage("msg-older", feed, `{}`),
	}
	srv := indexerServer(t, map[string]any{"msg-new": encodedContent(t, "fresh post about the bridge rollout")}, page)
	defer srv.Close()

	store := newStubStore()
	store.existing["msg-known"] = struct{}{}
	svc := &IngestService{
		Store:    store,
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}
	changed, err := svc.UpdateFeed(context.Background(), feed, 100)
	if err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}
	if !changed {
		t.Fatal("expected new ingestion")
	}
	if len(store.saved) != 1 || store.saved[0].ID != "msg-new" {
		t.Fatalf("expected only the post above the watermark, got %+v", store.saved)
	}
}

func TestUpdateFeedEmptyPage(t *testing.T) {
	reg, feed := testRegistry(t, nil)
	srv := indexerServer(t, map[string]any{})
	defer srv.Close()

	svc := &IngestService{
		Store:    newStubStore(),
		Indexer:  indexer.NewClient(srv.Client(), srv.URL, 1),
		Registry: reg,
	}
	changed, err := svc.UpdateFeed(context.Background(), feed, 100)
	if err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}
	if changed {
		t.Fatal("empty history must report no change")
	}
}
