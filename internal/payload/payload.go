// Package payload encodes a chat caption and an optional attachment name into
// the single text body carried by a chat message.
//
// The wire form is caption + Delimiter + attachment, or just the caption when
// there is no attachment. There is no escaping: a caption that itself
// contains Delimiter decodes ambiguously, and Decode always splits on the
// first occurrence.
package payload

import "strings"

// Delimiter separates caption from attachment name.
const Delimiter = "<-|->"

// Payload is the decoded form of a message body. An empty Attachment means
// the message carries no file.
type Payload struct {
	Caption    string
	Attachment string
}

// HasAttachment reports whether the payload references a file.
func (p Payload) HasAttachment() bool {
	return p.Attachment != ""
}

// Empty reports whether there is neither caption nor attachment.
func (p Payload) Empty() bool {
	return p.Caption == "" && p.Attachment == ""
}

// String returns the wire form.
func (p Payload) String() string {
	return Encode(p.Caption, p.Attachment)
}

// Encode builds the wire form. An empty attachment returns caption unchanged.
func Encode(caption, attachment string) string {
	if attachment == "" {
		return caption
	}
	return caption + Delimiter + attachment
}

// Decode splits wire on the first Delimiter. It never fails.
func Decode(wire string) Payload {
	caption, attachment, found := strings.Cut(wire, Delimiter)
	if !found {
		return Payload{Caption: wire}
	}
	return Payload{Caption: caption, Attachment: attachment}
}
