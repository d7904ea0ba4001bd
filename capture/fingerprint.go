package capture

import (
	"fmt"
	"hash/fnv"

	"main/model"
)

// Fingerprints are cheap, comparable signatures over bounded prefixes so
// they stay O(1) for arbitrarily large payloads. The probe key is
// computable straight off the OS snapshot with no decoding or encoding;
// the payload key is derived from the built record and additionally
// collapses near-duplicates.

const (
	textProbeWindow  = 160
	imageProbeWindow = 4096
)

type ProbeKey string

type PayloadKey string

// Snapshot is one clipboard read: plain text, optional HTML flavor, and
// the raw encoded image when the OS offers one.
type Snapshot struct {
	Text  string
	HTML  string
	Image []byte
}

func (s Snapshot) Empty() bool {
	return s.Text == "" && s.HTML == "" && len(s.Image) == 0
}

func shortHash(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func prefixBytes(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// Probe fingerprints the snapshot: format flags, byte lengths and a
// short hash over leading windows. Identical probes mean "nothing
// changed" and short-circuit all downstream work.
func Probe(snap Snapshot) ProbeKey {
	format := "t"
	if len(snap.Image) > 0 {
		format = "i"
	} else if snap.HTML != "" {
		format = "h"
	}

	textHash := shortHash([]byte(prefixRunes(snap.Text, textProbeWindow)))
	imageHash := shortHash(prefixBytes(snap.Image, imageProbeWindow))

	return ProbeKey(fmt.Sprintf("%s:%d:%d:%x:%x",
		format, len(snap.Text), len(snap.Image), textHash, imageHash))
}

// Payload fingerprints the built record so alternating copies of the
// same content (A, B, A) collapse onto one retained clip.
func Payload(clip *model.Clip) PayloadKey {
	content := prefixRunes(clip.Content, textProbeWindow)
	imageHash := ""
	if clip.Image != nil {
		imageHash = clip.Image.Hash
	}
	return PayloadKey(fmt.Sprintf("%s:%x:%s", clip.Kind, shortHash([]byte(content)), imageHash))
}
