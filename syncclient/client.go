// Package syncclient talks to the sync API on behalf of one device:
// push everything edited locally, then pull everything the server saw
// since the stored cursor. Both directions are resumable; a failed
// batch leaves the local state untouched and is retried next cycle.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"main/dto"
	"main/localstore"
	"main/model"
)

const (
	pushBatchSize = 100
	pullBatchSize = 100
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	ownerID  string
	deviceID string

	// token is set by Login; when headerAuth is true the server trusts
	// X-Owner-ID/X-Device-ID instead and no session is needed.
	token      string
	headerAuth bool
}

func NewClient(baseURL, ownerID, deviceID string, headerAuth bool) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ownerID:    ownerID,
		deviceID:   deviceID,
		headerAuth: headerAuth,
	}
}

// envelope is the server's response wrapper.
type envelope struct {
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// transientError marks failures worth retrying: transport errors and
// server-side 5xx. Everything else surfaces immediately.
func transientError(status int) bool {
	return status >= 500
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to encode request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.headerAuth {
			req.Header.Set("X-Owner-ID", c.ownerID)
			req.Header.Set("X-Device-ID", c.deviceID)
		} else if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to read response: %w", err))
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			env.Error = string(raw)
		}

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("server returned %d: %s", resp.StatusCode, env.Error)
			if transientError(resp.StatusCode) {
				return retry.RetryableError(err)
			}
			return err
		}

		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}

// Login opens a device session and keeps the bearer token for
// subsequent calls. Not needed in header-auth mode.
func (c *Client) Login(ctx context.Context, password string) error {
	var out dto.SessionResponse
	req := dto.SessionRequest{OwnerID: c.ownerID, DeviceID: c.deviceID, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/session", req, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Push sends every dirty clip as a full-state change. Applied entries
// adopt the server's timestamps; conflicting entries adopt the server's
// whole record, discarding the local edit.
func (c *Client) Push(ctx context.Context, store *localstore.Store) error {
	dirty := store.DirtyClips()
	for start := 0; start < len(dirty); start += pushBatchSize {
		end := start + pushBatchSize
		if end > len(dirty) {
			end = len(dirty)
		}

		batch := dirty[start:end]
		req := dto.PushRequest{Changes: make([]dto.ClipChange, len(batch))}
		for i, clip := range batch {
			req.Changes[i] = changeFromClip(clip)
		}

		var out dto.PushResponse
		if err := c.do(ctx, http.MethodPost, "/api/sync/push", req, &out); err != nil {
			return err
		}

		for _, applied := range out.Applied {
			if err := c.adoptApplied(store, applied); err != nil {
				return err
			}
		}
		for _, conflict := range out.Conflicts {
			if err := store.ApplyRemote(clipFromResponse(conflict)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pull walks the owner's timeline from the stored cursor, applying
// every remote record and advancing the cursor batch by batch. Clips
// with unpushed local edits are skipped; the next push settles them.
func (c *Client) Pull(ctx context.Context, store *localstore.Store) error {
	dirty := make(map[string]bool)
	for _, clip := range store.DirtyClips() {
		dirty[clip.ID] = true
	}

	for {
		path := fmt.Sprintf("/api/sync/pull?limit=%d", pullBatchSize)
		if since := store.Cursor(); since != "" {
			path += "&since=" + since
		}

		var out dto.PullResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return err
		}

		for _, change := range out.Changes {
			if dirty[change.ID] {
				continue
			}
			if err := store.ApplyRemote(clipFromResponse(change)); err != nil {
				return err
			}
		}
		if out.NextSince != "" {
			if err := store.SetCursor(out.NextSince); err != nil {
				return err
			}
		}
		if !out.HasMore {
			return nil
		}
	}
}

// Sync runs one push/pull cycle.
func (c *Client) Sync(ctx context.Context, store *localstore.Store) error {
	if err := c.Push(ctx, store); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	if err := c.Pull(ctx, store); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	return nil
}

// adoptApplied folds the server's acknowledgement into the local copy.
// Applied entries come back without bulky fields, so only the
// server-owned attributes are taken; the local content stands.
func (c *Client) adoptApplied(store *localstore.Store, resp dto.ClipResponse) error {
	clip, err := store.GetClip(resp.ID)
	if err != nil {
		if err == localstore.ErrClipNotFound {
			return store.ClearDirty([]string{resp.ID})
		}
		return err
	}

	clip.ServerUpdatedAt = resp.ServerUpdatedAt
	clip.CreatedAt = resp.CreatedAt
	clip.Kind = resp.Kind
	clip.Summary = resp.Summary
	clip.SourceURL = resp.SourceURL
	if clip.Image != nil && resp.Image != nil {
		clip.Image.ObjectKey = resp.Image.ObjectKey
	}
	return store.ApplyRemote(clip)
}

// changeFromClip states the clip's full current value for every field,
// so the server's merge replaces rather than patches. An absent image
// is an explicit null: the device no longer has one.
func changeFromClip(clip *model.Clip) dto.ClipChange {
	change := dto.ClipChange{
		ID:              clip.ID,
		OriginDeviceID:  clip.OriginDeviceID,
		Kind:            dto.Some(clip.Kind),
		Summary:         dto.Some(clip.Summary),
		Content:         dto.Some(clip.Content),
		RichHTML:        dto.Some(clip.RichHTML),
		SourceURL:       dto.Some(clip.SourceURL),
		IsFavorite:      dto.Some(clip.IsFavorite),
		IsDeleted:       dto.Some(clip.IsDeleted),
		Tags:            dto.Some(append([]string(nil), clip.Tags...)),
		ClientUpdatedAt: clip.ClientUpdatedAt,
	}
	if clip.Image != nil && len(clip.Image.Data) > 0 {
		change.Image = dto.Some(dto.ImageUpload{Mime: clip.Image.Mime, Data: clip.Image.Data})
	} else if clip.Image == nil {
		change.Image = dto.Null[dto.ImageUpload]()
	}
	if clip.Preview != nil {
		change.Preview = dto.Some(*clip.Preview)
	}
	return change
}

func clipFromResponse(resp dto.ClipResponse) *model.Clip {
	return &model.Clip{
		ID:              resp.ID,
		OwnerID:         resp.OwnerID,
		OriginDeviceID:  resp.OriginDeviceID,
		Kind:            resp.Kind,
		Summary:         resp.Summary,
		Content:         resp.Content,
		RichHTML:        resp.RichHTML,
		SourceURL:       resp.SourceURL,
		Image:           resp.Image,
		Preview:         resp.Preview,
		IsFavorite:      resp.IsFavorite,
		IsDeleted:       resp.IsDeleted,
		Tags:            resp.Tags,
		ClientUpdatedAt: resp.ClientUpdatedAt,
		ServerUpdatedAt: resp.ServerUpdatedAt,
		CreatedAt:       resp.CreatedAt,
	}
}
