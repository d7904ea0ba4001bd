package dto

import (
	"encoding/json"
	"time"

	"main/model"
)

// ImageUpload is the encoded image a device attaches to a change. The
// server decides the storage tier; clients never pick one.
type ImageUpload struct {
	Mime string `json:"mime"`
	Data []byte `json:"data"`
}

// ListClipsRequest binds the browsing query string. kind goes through
// the clipkind rule so a typo fails fast instead of silently matching
// nothing.
type ListClipsRequest struct {
	Query    string `form:"q"`
	Tag      string `form:"tag"`
	Kind     string `form:"kind" binding:"omitempty,clipkind"`
	Favorite string `form:"favorite"`
	Cursor   string `form:"cursor"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
	Lite     string `form:"lite"`
}

// ClipChange is the partial-record shape accepted by create, update and
// sync push. Omitted optional fields keep their stored value, explicit
// null clears them.
type ClipChange struct {
	ID              string                        `json:"id"`
	OriginDeviceID  string                        `json:"origin_device_id,omitempty"`
	Kind            Optional[string]              `json:"kind,omitempty"`
	Summary         Optional[string]              `json:"summary,omitempty"`
	Content         Optional[string]              `json:"content,omitempty"`
	RichHTML        Optional[string]              `json:"rich_html,omitempty"`
	SourceURL       Optional[string]              `json:"source_url,omitempty"`
	Image           Optional[ImageUpload]         `json:"image,omitempty"`
	Preview         Optional[model.ImagePreview]  `json:"preview,omitempty"`
	IsFavorite      Optional[bool]                `json:"is_favorite,omitempty"`
	IsDeleted       Optional[bool]                `json:"is_deleted,omitempty"`
	Tags            Optional[[]string]            `json:"tags,omitempty"`
	ClientUpdatedAt time.Time                     `json:"client_updated_at"`
}

// MarshalJSON emits only defined fields; omitempty cannot express the
// omitted/null distinction for struct-typed optionals.
func (ch ClipChange) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"id":                ch.ID,
		"client_updated_at": ch.ClientUpdatedAt,
	}
	if ch.OriginDeviceID != "" {
		out["origin_device_id"] = ch.OriginDeviceID
	}
	if ch.Kind.Defined {
		out["kind"] = ch.Kind
	}
	if ch.Summary.Defined {
		out["summary"] = ch.Summary
	}
	if ch.Content.Defined {
		out["content"] = ch.Content
	}
	if ch.RichHTML.Defined {
		out["rich_html"] = ch.RichHTML
	}
	if ch.SourceURL.Defined {
		out["source_url"] = ch.SourceURL
	}
	if ch.Image.Defined {
		out["image"] = ch.Image
	}
	if ch.Preview.Defined {
		out["preview"] = ch.Preview
	}
	if ch.IsFavorite.Defined {
		out["is_favorite"] = ch.IsFavorite
	}
	if ch.IsDeleted.Defined {
		out["is_deleted"] = ch.IsDeleted
	}
	if ch.Tags.Defined {
		out["tags"] = ch.Tags
	}
	return json.Marshal(out)
}

type ClipResponse struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	OriginDeviceID  string              `json:"origin_device_id"`
	Kind            string              `json:"kind"`
	Summary         string              `json:"summary"`
	Content         string              `json:"content"`
	RichHTML        string              `json:"rich_html,omitempty"`
	SourceURL       string              `json:"source_url,omitempty"`
	Image           *model.ImagePayload `json:"image,omitempty"`
	Preview         *model.ImagePreview `json:"preview,omitempty"`
	IsFavorite      bool                `json:"is_favorite"`
	IsDeleted       bool                `json:"is_deleted"`
	Tags            []string            `json:"tags,omitempty"`
	ClientUpdatedAt time.Time           `json:"client_updated_at"`
	ServerUpdatedAt time.Time           `json:"server_updated_at"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ToClipResponse converts a stored clip. With lite set, the large fields
// (HTML body, full image bytes) are omitted; the preview stays.
func ToClipResponse(clip *model.Clip, lite bool) ClipResponse {
	resp := ClipResponse{
		ID:              clip.ID,
		OwnerID:         clip.OwnerID,
		OriginDeviceID:  clip.OriginDeviceID,
		Kind:            clip.Kind,
		Summary:         clip.Summary,
		Content:         clip.Content,
		RichHTML:        clip.RichHTML,
		SourceURL:       clip.SourceURL,
		Image:           clip.Image,
		Preview:         clip.Preview,
		IsFavorite:      clip.IsFavorite,
		IsDeleted:       clip.IsDeleted,
		Tags:            clip.Tags,
		ClientUpdatedAt: clip.ClientUpdatedAt,
		ServerUpdatedAt: clip.ServerUpdatedAt,
		CreatedAt:       clip.CreatedAt,
	}
	if lite {
		resp.RichHTML = ""
		if clip.Image != nil {
			img := *clip.Image
			img.Data = nil
			resp.Image = &img
		}
	}
	return resp
}

func ToClipResponses(clips []*model.Clip, lite bool) []ClipResponse {
	responses := make([]ClipResponse, len(clips))
	for i, clip := range clips {
		responses[i] = ToClipResponse(clip, lite)
	}
	return responses
}

type ClipsPageResponse struct {
	Clips      []ClipResponse `json:"clips"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

type TagResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsDeleted   bool   `json:"is_deleted"`
}

func ToTagResponses(tags []*model.Tag) []TagResponse {
	responses := make([]TagResponse, len(tags))
	for i, tag := range tags {
		responses[i] = TagResponse{ID: tag.ID, DisplayName: tag.DisplayName, IsDeleted: tag.IsDeleted}
	}
	return responses
}
