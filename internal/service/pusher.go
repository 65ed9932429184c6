package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"blockfeed/internal/models"
	"blockfeed/internal/repository"
)

// DefaultDirectChannel carries direct-message notifications produced by
// other services sharing the redis instance.
const DefaultDirectChannel = "direct-messages"

// RedisPublisher adapts a redis client to the Publisher interface.
type RedisPublisher struct {
	Client *redis.Client
}

func (p RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.Client.Publish(ctx, channel, payload).Err()
}

// PusherService bridges the pub/sub side channels to browser push. A push
// endpoint that reports Gone is dropped from the user's subscriptions.
type PusherService struct {
	Redis         *redis.Client
	Store         repository.Repository
	Logger        *zap.Logger
	VAPIDPublic   string
	VAPIDPrivate  string
	Subscriber    string
	ReplyChannel  string
	DirectChannel string
}

type pushPayload struct {
	Type string `json:"type"`
	Body any    `json:"body"`
}

// Run consumes the side channels until the context ends.
func (p *PusherService) Run(ctx context.Context) error {
	reply := p.ReplyChannel
	if reply == "" {
		reply = DefaultReplyChannel
	}
	direct := p.DirectChannel
	if direct == "" {
		direct = DefaultDirectChannel
	}
	sub := p.Redis.Subscribe(ctx, reply, direct)
	defer sub.Close()
	p.logger().Info("pusher subscribed", zap.Strings("channels", []string{reply, direct}))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			switch msg.Channel {
			case reply:
				p.handleReply(ctx, []byte(msg.Payload))
			case direct:
				p.handleDirect(ctx, []byte(msg.Payload))
			}
		}
	}
}

func (p *PusherService) handleReply(ctx context.Context, payload []byte) {
	var envelope struct {
		Data struct {
			OriginalPost models.Post `json:"originalPost"`
			ReplyPost    models.Post `json:"replyPost"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.logger().Warn("failed to parse reply notification", zap.Error(err))
		return
	}
	original := envelope.Data.OriginalPost
	reply := envelope.Data.ReplyPost
	feedID := ""
	if original.FeedID != nil {
		feedID = *original.FeedID
	}
	p.sendPush(ctx, original.Sender, pushPayload{
		Type: "POST_REPLY",
		Body: map[string]any{
			"feedId": feedID,
			"author": map[string]string{"address": original.Sender, "postId": original.ID},
			"reply":  map[string]string{"address": reply.Sender, "postId": reply.ID},
		},
	})
}

func (p *PusherService) handleDirect(ctx context.Context, payload []byte) {
	var envelope struct {
		Data struct {
			IsBroadcast      bool   `json:"isBroadcast"`
			SenderAddress    string `json:"senderAddress"`
			RecipientAddress string `json:"recipientAddress"`
			MsgID            string `json:"msgId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.logger().Warn("failed to parse direct notification", zap.Error(err))
		return
	}
	body := envelope.Data
	if body.IsBroadcast {
		p.broadcastMail(ctx, body.SenderAddress, body.MsgID)
		return
	}
	address := normalizeRecipient(body.RecipientAddress)
	p.sendPush(ctx, address, pushPayload{
		Type: "INCOMING_MAIL",
		Body: map[string]string{
			"senderAddress":    body.SenderAddress,
			"recipientAddress": address,
			"msgId":            body.MsgID,
		},
	})
}

// broadcastMail fans a broadcast notification out to every user holding at
// least one push subscription.
func (p *PusherService) broadcastMail(ctx context.Context, sender string, msgID string) {
	users, err := p.Store.ListUsersWithSubscriptions(ctx)
	if err != nil {
		p.logger().Warn("failed to list push users", zap.Error(err))
		return
	}
	payload := pushPayload{
		Type: "INCOMING_BROADCAST",
		Body: map[string]string{
			"senderAddress": sender,
			"msgId":         msgID,
		},
	}
	for i := range users {
		p.pushToUser(ctx, &users[i], payload)
	}
}

func (p *PusherService) sendPush(ctx context.Context, address string, payload pushPayload) {
	user, err := p.Store.GetUserByAddress(ctx, strings.ToLower(address))
	if err != nil {
		p.logger().Warn("failed to load push user", zap.String("address", address), zap.Error(err))
		return
	}
	if user == nil {
		return
	}
	p.pushToUser(ctx, user, payload)
}

// pushToUser delivers to every subscription of one user, dropping the
// endpoints that report Gone.
func (p *PusherService) pushToUser(ctx context.Context, user *models.User, payload pushPayload) {
	if len(user.PushSubscriptions) == 0 {
		return
	}
	var subs []webpush.Subscription
	if err := json.Unmarshal(user.PushSubscriptions, &subs); err != nil {
		p.logger().Warn("failed to parse push subscriptions", zap.String("address", user.Address), zap.Error(err))
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	var kept []webpush.Subscription
	dropped := false
	for _, sub := range subs {
		gone := p.deliver(raw, sub)
		if gone {
			dropped = true
			continue
		}
		kept = append(kept, sub)
	}
	if !dropped {
		return
	}
	updated, err := json.Marshal(kept)
	if err != nil {
		return
	}
	user.PushSubscriptions = datatypes.JSON(updated)
	if err := p.Store.SaveUser(ctx, user); err != nil {
		p.logger().Warn("failed to drop expired push subscription",
			zap.String("address", user.Address), zap.Error(err))
	}
}

// deliver sends one notification and reports whether the endpoint is gone.
func (p *PusherService) deliver(payload []byte, sub webpush.Subscription) bool {
	resp, err := webpush.SendNotification(payload, &sub, &webpush.Options{
		Subscriber:      p.Subscriber,
		VAPIDPublicKey:  p.VAPIDPublic,
		VAPIDPrivateKey: p.VAPIDPrivate,
		TTL:             60,
	})
	if err != nil {
		p.logger().Warn("failed to send push", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusGone
}

// normalizeRecipient converts a 32-byte recipient into a wallet address:
// EVM addresses are zero-padded to 24 leading zeros, everything else is a
// TVM account id.
func normalizeRecipient(recipient string) string {
	if strings.HasPrefix(recipient, strings.Repeat("0", 24)) {
		return "0x" + recipient[24:]
	}
	return "0:" + recipient
}

func (p *PusherService) logger() *zap.Logger {
	if p == nil || p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
