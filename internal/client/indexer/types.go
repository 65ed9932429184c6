package indexer

import (
	"encoding/json"
	"fmt"
)

// Message is one broadcast as reported by the indexer. Meta is kept raw so
// the full record can be persisted alongside the decoded fields.
type Message struct {
	MsgID         string          `json:"msgId"`
	CreatedAt     int64           `json:"createdAt"`
	SenderAddress string          `json:"senderAddress"`
	Blockchain    string          `json:"blockchain"`
	FeedID        string          `json:"feedId"`
	Key           ByteList        `json:"key"`
	Meta          json.RawMessage `json:"$$meta"`
}

// MessageMeta is the subset of Meta the pipeline inspects. TVM chains put
// the contract address in src, EVM chains under tx.to.
type MessageMeta struct {
	ExtraPayment string `json:"extraPayment"`
	Src          string `json:"src"`
	Tx           struct {
		To string `json:"to"`
	} `json:"tx"`
}

func (m Message) ParsedMeta() (MessageMeta, error) {
	var meta MessageMeta
	if len(m.Meta) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(m.Meta, &meta); err != nil {
		return meta, fmt.Errorf("failed to decode message meta: %w", err)
	}
	return meta, nil
}

// Content is a message payload. Corrupted payloads carry no usable bytes.
type Content struct {
	MsgID     string   `json:"msgId"`
	Corrupted bool     `json:"corrupted"`
	Content   ByteList `json:"content"`
}

// ByteList decodes the indexer's byte representation, which is a JSON array
// of numbers rather than a base64 string.
type ByteList []byte

func (b *ByteList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var nums []uint16
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n > 0xff {
			return fmt.Errorf("byte value out of range: %d", n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

func (b ByteList) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	nums := make([]uint16, len(b))
	for i, v := range b {
		nums[i] = uint16(v)
	}
	return json.Marshal(nums)
}
