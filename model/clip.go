package model

import (
	"time"
)

// Clip kinds, inferred from content shape and never user-set.
const (
	KindText  = "text"
	KindLink  = "link"
	KindHTML  = "html"
	KindImage = "image"
)

type Clip struct {
	ID              string        `bson:"_id" json:"id"`
	OwnerID         string        `bson:"owner_id" json:"owner_id"`
	OriginDeviceID  string        `bson:"origin_device_id" json:"origin_device_id"`
	Kind            string        `bson:"kind" json:"kind"`
	Summary         string        `bson:"summary" json:"summary"`
	Content         string        `bson:"content" json:"content"`
	RichHTML        string        `bson:"rich_html,omitempty" json:"rich_html,omitempty"`
	SourceURL       string        `bson:"source_url,omitempty" json:"source_url,omitempty"`
	Image           *ImagePayload `bson:"image,omitempty" json:"image,omitempty"`
	Preview         *ImagePreview `bson:"preview,omitempty" json:"preview,omitempty"`
	IsFavorite      bool          `bson:"is_favorite" json:"is_favorite"`
	IsDeleted       bool          `bson:"is_deleted" json:"is_deleted"`
	Tags            []string      `bson:"tags,omitempty" json:"tags,omitempty"`
	ClientUpdatedAt time.Time     `bson:"client_updated_at" json:"client_updated_at"`
	ServerUpdatedAt time.Time     `bson:"server_updated_at" json:"server_updated_at"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

// ImagePayload holds the encoded full-size image. Exactly one of Data
// (inline tier) or ObjectKey (object-storage tier) is set.
type ImagePayload struct {
	Mime      string `bson:"mime" json:"mime"`
	ByteSize  int    `bson:"byte_size" json:"byte_size"`
	Hash      string `bson:"hash" json:"hash"`
	Data      []byte `bson:"data,omitempty" json:"data,omitempty"`
	ObjectKey string `bson:"object_key,omitempty" json:"object_key,omitempty"`
}

// ImagePreview is always small enough to inline regardless of where the
// full image lives.
type ImagePreview struct {
	Mime string `bson:"mime" json:"mime"`
	Data []byte `bson:"data" json:"data"`
}

func ValidKind(kind string) bool {
	switch kind {
	case KindText, KindLink, KindHTML, KindImage:
		return true
	}
	return false
}

// Inline reports whether the full image bytes are stored in the metadata
// record rather than in object storage.
func (p *ImagePayload) Inline() bool {
	return p != nil && len(p.Data) > 0
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored record.
func (c *Clip) Clone() *Clip {
	out := *c
	if c.Image != nil {
		img := *c.Image
		img.Data = append([]byte(nil), c.Image.Data...)
		out.Image = &img
	}
	if c.Preview != nil {
		pv := *c.Preview
		pv.Data = append([]byte(nil), c.Preview.Data...)
		out.Preview = &pv
	}
	out.Tags = append([]string(nil), c.Tags...)
	return &out
}
