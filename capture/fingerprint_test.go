package capture

import (
	"strings"
	"testing"

	"main/model"
)

func TestProbeStability(t *testing.T) {
	snap := Snapshot{Text: "hello world"}
	if Probe(snap) != Probe(snap) {
		t.Error("identical snapshots must produce identical probes")
	}
}

func TestProbeDistinguishesContent(t *testing.T) {
	a := Probe(Snapshot{Text: "first"})
	b := Probe(Snapshot{Text: "second"})
	if a == b {
		t.Error("different text must produce different probes")
	}
}

func TestProbeDistinguishesFormat(t *testing.T) {
	text := Probe(Snapshot{Text: "same"})
	withHTML := Probe(Snapshot{Text: "same", HTML: "<b>same</b>"})
	withImage := Probe(Snapshot{Text: "same", Image: []byte{0x89, 0x50}})

	if text == withHTML {
		t.Error("html flavor must change the probe")
	}
	if text == withImage || withHTML == withImage {
		t.Error("image presence must change the probe")
	}
}

func TestProbeLengthBeyondWindow(t *testing.T) {
	// Two texts sharing a 160-rune prefix but differing in length must
	// still differ: the length is part of the key.
	base := strings.Repeat("a", 200)
	longer := strings.Repeat("a", 300)
	if Probe(Snapshot{Text: base}) == Probe(Snapshot{Text: longer}) {
		t.Error("length difference beyond the hash window must change the probe")
	}
}

func TestProbeSamePrefixSameLength(t *testing.T) {
	// Differences past the window with equal lengths are invisible to
	// the probe. The payload key downstream has the same property; this
	// is the accepted cost of O(1) fingerprinting.
	prefix := strings.Repeat("a", 160)
	x := Probe(Snapshot{Text: prefix + "xxxx"})
	y := Probe(Snapshot{Text: prefix + "yyyy"})
	if x != y {
		t.Error("expected window-bounded probe to collapse equal-length suffix variants")
	}
}

func TestPayloadCollapsesAlternation(t *testing.T) {
	clipA := &model.Clip{Kind: model.KindText, Content: "aaa"}
	clipB := &model.Clip{Kind: model.KindText, Content: "bbb"}
	clipA2 := &model.Clip{Kind: model.KindText, Content: "aaa"}

	if Payload(clipA) == Payload(clipB) {
		t.Error("different payloads must not collide")
	}
	if Payload(clipA) != Payload(clipA2) {
		t.Error("re-copied identical content must share a payload key")
	}
}

func TestPayloadIncludesImageHash(t *testing.T) {
	withImage := &model.Clip{Kind: model.KindImage, Content: "Image",
		Image: &model.ImagePayload{Hash: "abc123"}}
	otherImage := &model.Clip{Kind: model.KindImage, Content: "Image",
		Image: &model.ImagePayload{Hash: "def456"}}

	if Payload(withImage) == Payload(otherImage) {
		t.Error("image hash must participate in the payload key")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	if !(Snapshot{}).Empty() {
		t.Error("zero snapshot should be empty")
	}
	if (Snapshot{Text: "x"}).Empty() || (Snapshot{Image: []byte{1}}).Empty() || (Snapshot{HTML: "<p>"}).Empty() {
		t.Error("populated snapshot should not be empty")
	}
}
