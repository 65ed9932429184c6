package registry

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"blockfeed/internal/models"
	"blockfeed/internal/repository"
)

type stubStore struct {
	repository.Repository
	feeds       []models.Feed
	savedFeeds  []models.Feed
	banned      []models.BannedAddress
	predefined  []models.PredefinedText
	admins      []models.Admin
	composedIDs map[string][2]string
}

func (s *stubStore) ListFeeds(ctx context.Context) ([]models.Feed, error) {
	return s.feeds, nil
}

func (s *stubStore) SaveFeed(ctx context.Context, item *models.Feed) error {
	s.savedFeeds = append(s.savedFeeds, *item)
	return nil
}

func (s *stubStore) UpdateFeedComposedIDs(ctx context.Context, feedID string, evmFeedID *string, tvmFeedID *string) error {
	if s.composedIDs == nil {
		s.composedIDs = map[string][2]string{}
	}
	s.composedIDs[feedID] = [2]string{*evmFeedID, *tvmFeedID}
	return nil
}

func (s *stubStore) ListBannedAddresses(ctx context.Context) ([]models.BannedAddress, error) {
	return s.banned, nil
}

func (s *stubStore) ListPredefinedTexts(ctx context.Context) ([]models.PredefinedText, error) {
	return s.predefined, nil
}

func (s *stubStore) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return s.admins, nil
}

const (
	rootFeedID  = "0000000000000000000000000000000000000000000000000000000000000001"
	childFeedID = "0000000000000000000000000000000000000000000000000000000000000002"
)

func testFeeds() []models.Feed {
	root := rootFeedID
	return []models.Feed{
		{
			FeedID:      rootFeedID,
			Title:       "root",
			Commissions: datatypes.JSONMap{"ETHEREUM": "1"},
		},
		{
			FeedID:       childFeedID,
			ParentFeedID: &root,
			Title:        "child",
			Commissions:  datatypes.JSONMap{"ETHEREUM": "0.5", "POLYGON": "2"},
		},
	}
}

func TestRefreshFeedsBackfillsComposedIDs(t *testing.T) {
	store := &stubStore{feeds: testFeeds()}
	reg := New(store, nil, nil)
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	if len(store.composedIDs) != 2 {
		t.Fatalf("expected composed ids written back for 2 feeds, got %d", len(store.composedIDs))
	}
	feed, ok := reg.Feed(childFeedID)
	if !ok {
		t.Fatal("child feed missing from registry")
	}
	if feed.EvmFeedID == nil || feed.TvmFeedID == nil {
		t.Fatal("composed ids not set on registry copy")
	}
}

func TestResolveFeedByChainFamily(t *testing.T) {
	store := &stubStore{feeds: testFeeds()}
	reg := New(store, nil, nil)
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	root, _ := reg.Feed(rootFeedID)

	if _, ok := reg.ResolveFeed("ETHEREUM", *root.EvmFeedID); !ok {
		t.Fatal("EVM composed id did not resolve")
	}
	if _, ok := reg.ResolveFeed("everscale", *root.TvmFeedID); !ok {
		t.Fatal("TVM composed id did not resolve")
	}
	if _, ok := reg.ResolveFeed("everscale", *root.EvmFeedID); ok {
		t.Fatal("EVM composed id must not resolve on a TVM chain")
	}
}

func TestFeedCommissionsWalksAncestors(t *testing.T) {
	store := &stubStore{feeds: testFeeds()}
	reg := New(store, nil, nil)
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	schedules, err := reg.FeedCommissions(childFeedID)
	if err != nil {
		t.Fatalf("FeedCommissions: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected child and root schedules, got %d", len(schedules))
	}
	if schedules[0]["ETHEREUM"] != "0.5" || schedules[1]["ETHEREUM"] != "1" {
		t.Fatalf("unexpected schedules: %+v", schedules)
	}
}

func TestFeedCommissionsDetectsCycle(t *testing.T) {
	feeds := testFeeds()
	child := childFeedID
	feeds[0].ParentFeedID = &child
	store := &stubStore{feeds: feeds}
	reg := New(store, nil, nil)
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	if _, err := reg.FeedCommissions(childFeedID); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestFeedCommissionsMissingParent(t *testing.T) {
	missing := "00000000000000000000000000000000000000000000000000000000000000ff"
	feeds := testFeeds()
	feeds[1].ParentFeedID = &missing
	store := &stubStore{feeds: feeds}
	reg := New(store, nil, nil)
	if err := reg.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	if _, err := reg.FeedCommissions(childFeedID); err == nil {
		t.Fatal("expected missing parent error")
	}
}

func TestProvisionFeed(t *testing.T) {
	store := &stubStore{}
	reg := New(store, nil, nil)
	feed, err := reg.ProvisionFeed(context.Background(), "00000000000000000000000000000000000000000000000000000000000000AA")
	if err != nil {
		t.Fatalf("ProvisionFeed: %v", err)
	}
	if !feed.IsHidden {
		t.Fatal("provisioned feed must be hidden")
	}
	if feed.Title != defaultFeedTitle {
		t.Fatalf("unexpected title %q", feed.Title)
	}
	if len(store.savedFeeds) != 1 {
		t.Fatalf("expected one saved feed, got %d", len(store.savedFeeds))
	}
	// Second call must reuse the registered feed.
	again, err := reg.ProvisionFeed(context.Background(), feed.FeedID)
	if err != nil {
		t.Fatalf("ProvisionFeed: %v", err)
	}
	if len(store.savedFeeds) != 1 || again.FeedID != feed.FeedID {
		t.Fatal("provisioning is not idempotent")
	}
}

func TestRulesetSnapshot(t *testing.T) {
	store := &stubStore{
		banned:     []models.BannedAddress{{Address: "0:bad"}},
		predefined: []models.PredefinedText{{Text: "hello world"}},
	}
	reg := New(store, nil, []string{"GM"})
	if err := reg.RefreshModeration(context.Background()); err != nil {
		t.Fatalf("RefreshModeration: %v", err)
	}
	rules := reg.Ruleset()
	if _, ok := rules.LiteralBans["gm"]; !ok {
		t.Fatal("literal bans must be lowercased")
	}
	if _, ok := rules.BannedAddresses["0:bad"]; !ok {
		t.Fatal("banned address missing from ruleset")
	}
	if _, ok := rules.PredefinedTexts["hello world"]; !ok {
		t.Fatal("predefined text missing from ruleset")
	}
}

func TestRulesetLowercasesBannedAddresses(t *testing.T) {
	store := &stubStore{
		banned: []models.BannedAddress{{Address: "0xAbCdEf0123"}},
	}
	reg := New(store, nil, nil)
	if err := reg.RefreshModeration(context.Background()); err != nil {
		t.Fatalf("RefreshModeration: %v", err)
	}
	rules := reg.Ruleset()
	if _, ok := rules.BannedAddresses["0xabcdef0123"]; !ok {
		t.Fatal("checksummed banned address must be stored lowercase")
	}
}

func TestIsAdminCaseInsensitive(t *testing.T) {
	store := &stubStore{
		admins: []models.Admin{{FeedID: rootFeedID, Address: "0xAdMiN01"}},
	}
	reg := New(store, nil, nil)
	if err := reg.RefreshModeration(context.Background()); err != nil {
		t.Fatalf("RefreshModeration: %v", err)
	}
	if !reg.IsAdmin(rootFeedID, "0xadmin01") {
		t.Fatal("lowercased caller must match checksummed admin address")
	}
	if !reg.IsAdmin(rootFeedID, "0xADMIN01") {
		t.Fatal("uppercased caller must match checksummed admin address")
	}
	if reg.IsAdmin(rootFeedID, "") {
		t.Fatal("empty address must never match")
	}
	if reg.IsAdmin(rootFeedID, "0xother") {
		t.Fatal("unknown address must not match")
	}
}
