package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"blockfeed/internal/alert"
	"blockfeed/internal/client/indexer"
	"blockfeed/internal/commission"
	"blockfeed/internal/content"
	"blockfeed/internal/models"
	"blockfeed/internal/moderation"
	"blockfeed/internal/registry"
	"blockfeed/internal/repository"
)

// DefaultReplyChannel is the pub/sub channel reply notifications go out on.
const DefaultReplyChannel = "broadcast-replies"

const replyMarker = `<reply-to id="`

// Publisher is the pub/sub side channel for reply notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// IngestService turns raw indexer messages into classified, persisted
// posts. Every step is idempotent: replaying a message is a no-op once its
// id is stored.
type IngestService struct {
	Store        repository.Repository
	Indexer      *indexer.Client
	Registry     *registry.Registry
	Publisher    Publisher
	Notifier     *alert.Notifier
	Logger       *zap.Logger
	ReplyChannel string
}

// ProcessMessage runs the full pipeline for one message: resolve feed,
// validate commission, fetch and decode content, classify, persist, emit
// side effects. The returned post reflects what was stored.
func (s *IngestService) ProcessMessage(ctx context.Context, msg indexer.Message) (*models.Post, error) {
	post := models.Post{
		ID:                msg.MsgID,
		CreateTimestamp:   msg.CreatedAt,
		Sender:            msg.SenderAddress,
		Blockchain:        msg.Blockchain,
		OriginalFeedID:    msg.FeedID,
		IsCommissionValid: true,
		ExtraPayment:      "0",
	}

	meta, err := msg.ParsedMeta()
	if err != nil {
		s.logger().Warn("failed to parse message meta", zap.String("msg_id", msg.MsgID), zap.Error(err))
	}
	if isTvmChain(msg.Blockchain) {
		post.ContractAddress = meta.Src
	} else {
		post.ContractAddress = meta.Tx.To
	}

	feed, feedKnown := s.Registry.ResolveFeed(msg.Blockchain, msg.FeedID)
	if feedKnown {
		post.FeedID = &feed.FeedID
	}

	s.validateCommission(&post, feed, feedKnown, meta)

	rawMsg, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message for storage: %w", err)
	}
	post.Meta = datatypes.JSON(rawMsg)

	msgContent, err := s.Indexer.FetchContent(ctx, msg.MsgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content for %s: %w", msg.MsgID, err)
	}
	s.applyContent(&post, msgContent)

	s.broadcastReply(ctx, &post)

	if err := s.savePost(ctx, &post); err != nil {
		return nil, err
	}

	if post.ContentText == content.SentinelNoContent {
		if err := s.Store.InsertNoContentPost(ctx, post.ID); err != nil {
			s.logger().Warn("failed to record no-content post", zap.String("post_id", post.ID), zap.Error(err))
		}
	}
	return &post, nil
}

// validateCommission checks the attached payment against the feed's
// accumulated schedule. Any resolution failure bans the post.
func (s *IngestService) validateCommission(post *models.Post, feed models.Feed, feedKnown bool, meta indexer.MessageMeta) {
	decimals := commission.DecimalsFor(post.Blockchain)
	hasPayment := strings.TrimSpace(meta.ExtraPayment) != ""
	if hasPayment {
		display, err := commission.ExcludeDecimals(meta.ExtraPayment, decimals)
		if err != nil {
			s.failCommission(post, err)
			return
		}
		post.ExtraPayment = display
	}
	if !feedKnown {
		return
	}
	schedules, err := s.Registry.FeedCommissions(feed.FeedID)
	if err != nil {
		s.failCommission(post, err)
		return
	}
	required, err := commission.CalcCommissions(post.Blockchain, schedules)
	if err != nil {
		s.failCommission(post, err)
		return
	}
	if required.IsZero() {
		return
	}
	if !hasPayment {
		s.failCommission(post, nil)
		return
	}
	base := commission.CalcCommissionDecimals(required, decimals)
	ok, err := commission.IsGreaterOrEqual(meta.ExtraPayment, base.String())
	if err != nil {
		s.failCommission(post, err)
		return
	}
	if !ok {
		s.failCommission(post, nil)
	}
}

func (s *IngestService) failCommission(post *models.Post, err error) {
	if err != nil {
		s.logger().Warn("commission resolution failed",
			zap.String("post_id", post.ID), zap.Error(err))
	}
	post.IsCommissionValid = false
	post.Banned = true
	post.IsAutobanned = true
}

// applyContent decodes the payload and classifies the text. Missing and
// undecodable payloads are terminal states, not errors.
func (s *IngestService) applyContent(post *models.Post, msgContent *indexer.Content) {
	if msgContent == nil {
		post.Banned = true
		post.IsAutobanned = true
		post.ContentText = content.SentinelNoContent
		return
	}
	raw, err := json.Marshal(msgContent)
	if err == nil {
		post.Content = datatypes.JSON(raw)
	}
	if msgContent.Corrupted {
		post.Banned = true
		post.IsAutobanned = true
		post.ContentText = content.SentinelCorrupted
		return
	}
	decoded, err := content.Decode(msgContent.Content)
	if err != nil {
		s.logger().Warn("failed to decode content",
			zap.String("post_id", post.ID), zap.Error(err))
		post.Banned = true
		post.IsAutobanned = true
		post.ContentText = content.SentinelCorrupted
		return
	}
	post.ContentText = decoded.Text
	if post.Banned {
		return
	}
	result := moderation.Classify(decoded.Text, post.Sender, s.Registry.Ruleset())
	if result.Banned {
		post.Banned = true
	}
	if result.IsAutobanned {
		post.IsAutobanned = true
	}
	if result.IsPredefined {
		post.IsPredefined = true
	}
}

// broadcastReply publishes a notification when a visible post references
// another post. Best effort: any failure is logged and dropped.
func (s *IngestService) broadcastReply(ctx context.Context, post *models.Post) {
	if s.Publisher == nil || post.Banned || !strings.Contains(post.ContentText, replyMarker) {
		return
	}
	rest := post.ContentText[strings.Index(post.ContentText, replyMarker)+len(replyMarker):]
	end := strings.Index(rest, `"`)
	if end <= 0 {
		return
	}
	originalID := rest[:end]
	original, err := s.Store.GetPostByID(ctx, originalID)
	if err != nil || original == nil || original.Banned {
		if err != nil {
			s.logger().Warn("failed to load replied-to post", zap.String("post_id", originalID), zap.Error(err))
		}
		return
	}
	payload, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"originalPost": original,
			"replyPost":    post,
		},
	})
	if err != nil {
		return
	}
	channel := s.ReplyChannel
	if channel == "" {
		channel = DefaultReplyChannel
	}
	if err := s.Publisher.Publish(ctx, channel, payload); err != nil {
		s.logger().Warn("failed to publish reply notification", zap.Error(err))
	}
}

// savePost persists the post and its hashtags. A hashtag failure is
// recovered by saving the post bare and raising an alert.
func (s *IngestService) savePost(ctx context.Context, post *models.Post) error {
	created, err := s.Store.InsertPostIgnoreDuplicate(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to save post %s: %w", post.ID, err)
	}
	if !created {
		return nil
	}
	tags := content.ExtractHashtags(post.ContentText)
	if len(tags) == 0 {
		return nil
	}
	if err := s.Store.SaveHashtags(ctx, post.ID, tags); err != nil {
		s.logger().Error("failed to save hashtags, post kept without them",
			zap.String("post_id", post.ID), zap.Error(err))
		s.Notifier.Send(ctx, fmt.Sprintf("Failed to save hashtags for post %s, saved without them: %v", post.ID, err))
	}
	return nil
}

// UpdateFeed pulls new messages for one feed until it reaches messages it
// has already stored or the indexer runs out. Reports whether anything new
// was ingested.
func (s *IngestService) UpdateFeed(ctx context.Context, feed models.Feed, pageLimit int) (bool, error) {
	if feed.EvmFeedID == nil || feed.TvmFeedID == nil {
		return false, fmt.Errorf("feed %s has no composed ids", feed.FeedID)
	}
	if pageLimit <= 0 {
		pageLimit = 100
	}
	composed := []string{*feed.EvmFeedID, *feed.TvmFeedID}
	changed := false
	for offset := 0; ; offset += pageLimit {
		page, err := s.Indexer.FetchBroadcasts(ctx, composed, offset, pageLimit)
		if err != nil {
			return changed, err
		}
		if len(page) == 0 {
			return changed, nil
		}
		ids := make([]string, len(page))
		for i, msg := range page {
			ids[i] = msg.MsgID
		}
		existing, err := s.Store.ExistingPostIDs(ctx, ids)
		if err != nil {
			return changed, err
		}
		for _, msg := range page {
			if _, seen := existing[msg.MsgID]; seen {
				// Watermark: everything older is already stored.
				return changed, nil
			}
			if _, err := s.ProcessMessage(ctx, msg); err != nil {
				return changed, err
			}
			changed = true
		}
	}
}

func (s *IngestService) logger() *zap.Logger {
	if s == nil || s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func isTvmChain(blockchain string) bool {
	return blockchain == "everscale" || blockchain == "venom-testnet"
}
