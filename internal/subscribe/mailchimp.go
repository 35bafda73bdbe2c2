package subscribe

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inspirewall/pkg/utils"
)

// Upstream is a mailing-list provider.
type Upstream interface {
	Name() string
	Upsert(ctx context.Context, email string) (UpstreamResult, error)
}

// UpstreamResult is the provider's answer. OK is false for a non-2xx status;
// Body holds the provider's JSON either way.
type UpstreamResult struct {
	OK     bool
	Status int
	Body   json.RawMessage
}

// Mailchimp adds list members through the Marketing API v3.
type Mailchimp struct {
	APIKey string
	ListID string
	// BaseURL overrides https://<dc>.api.mailchimp.com, for tests.
	BaseURL string
	Client  *http.Client
}

func NewMailchimp(cfg utils.MailchimpConfig) *Mailchimp {
	return &Mailchimp{
		APIKey: cfg.APIKey,
		ListID: cfg.ListID,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (m *Mailchimp) Name() string { return "mailchimp" }

// Datacenter is the suffix of the API key after its last dash, e.g. "us21".
func (m *Mailchimp) Datacenter() string {
	parts := strings.Split(m.APIKey, "-")
	return parts[len(parts)-1]
}

// MemberID is the hex MD5 of the lowercased address.
func MemberID(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

func (m *Mailchimp) memberURL(email string) string {
	base := m.BaseURL
	if base == "" {
		base = "https://" + m.Datacenter() + ".api.mailchimp.com"
	}
	return fmt.Sprintf("%s/3.0/lists/%s/members/%s", strings.TrimRight(base, "/"), m.ListID, MemberID(email))
}

type memberPayload struct {
	EmailAddress string `json:"email_address"`
	StatusIfNew  string `json:"status_if_new"`
}

// Upsert creates or updates the member. Transport failures and responses
// that are not JSON are returned as errors.
func (m *Mailchimp) Upsert(ctx context.Context, email string) (UpstreamResult, error) {
	payload, err := json.Marshal(memberPayload{EmailAddress: email, StatusIfNew: "subscribed"})
	if err != nil {
		return UpstreamResult{}, fmt.Errorf("mailchimp: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.memberURL(email), bytes.NewReader(payload))
	if err != nil {
		return UpstreamResult{}, fmt.Errorf("mailchimp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+m.APIKey)

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return UpstreamResult{}, fmt.Errorf("mailchimp: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UpstreamResult{}, fmt.Errorf("mailchimp: read body: %w", err)
	}
	if !json.Valid(body) {
		return UpstreamResult{}, fmt.Errorf("mailchimp: status %d: response is not json", resp.StatusCode)
	}

	return UpstreamResult{
		OK:     resp.StatusCode >= 200 && resp.StatusCode <= 299,
		Status: resp.StatusCode,
		Body:   json.RawMessage(body),
	}, nil
}
