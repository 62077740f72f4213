// Package types defines the content model shared by prompt stores, renderers
// and clients: parts, messages, documents and render-time data arguments.
//
// Part is a closed sum type. Its wire form carries no discriminator field;
// the variant is recognised from the shape of the JSON object, see UnmarshalPart.
package types

import (
	"path"
	"strings"
)

// PartKind names a Part variant.
type PartKind string

// Part kinds, listed in decode priority order.
const (
	PartKindText         PartKind = "text"
	PartKindData         PartKind = "data"
	PartKindMedia        PartKind = "media"
	PartKindToolRequest  PartKind = "toolRequest"
	PartKindToolResponse PartKind = "toolResponse"
	PartKindPending      PartKind = "pending"
)

// Part is one piece of message or document content.
// The implementations in this package are the only ones, and they are held
// by value: a pointer such as *TextPart satisfies the interface but is
// rejected by the encoder and reported as no kind by KindOf.
type Part interface {
	Kind() PartKind
	envelope() Envelope
	isPart()
}

// TextPart is plain text content.
type TextPart struct {
	Text string
	Envelope
}

// DataPart is arbitrary structured content. Data may be nil, which encodes as null.
type DataPart struct {
	Data any
	Envelope
}

// Media references binary content by URI (http, gs, data, ...).
type Media struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// MediaPart is media content.
type MediaPart struct {
	Media Media
	Envelope
}

// ToolRequest is a model's request to call a tool.
type ToolRequest struct {
	Name  string `json:"name"`
	Input any    `json:"input,omitempty"`
	// Ref correlates the request with its ToolResponse.
	Ref string `json:"ref,omitempty"`
}

// ToolRequestPart carries a ToolRequest.
type ToolRequestPart struct {
	ToolRequest ToolRequest
	Envelope
}

// ToolResponse is the result of a tool call.
type ToolResponse struct {
	Name   string `json:"name"`
	Output any    `json:"output,omitempty"`
	// Ref must equal the originating request's Ref when correlation is used.
	Ref string `json:"ref,omitempty"`
}

// ToolResponsePart carries a ToolResponse.
type ToolResponsePart struct {
	ToolResponse ToolResponse
	Envelope
}

// PendingPart is a placeholder for content that is not available yet.
// On the wire it is {"metadata": {"pending": true, ...}}; Metadata holds
// every entry except the pending flag and is nil when there are none.
type PendingPart struct {
	Envelope
}

func (TextPart) Kind() PartKind         { return PartKindText }
func (DataPart) Kind() PartKind         { return PartKindData }
func (MediaPart) Kind() PartKind        { return PartKindMedia }
func (ToolRequestPart) Kind() PartKind  { return PartKindToolRequest }
func (ToolResponsePart) Kind() PartKind { return PartKindToolResponse }
func (PendingPart) Kind() PartKind      { return PartKindPending }

func (p TextPart) envelope() Envelope         { return p.Envelope }
func (p DataPart) envelope() Envelope         { return p.Envelope }
func (p MediaPart) envelope() Envelope        { return p.Envelope }
func (p ToolRequestPart) envelope() Envelope  { return p.Envelope }
func (p ToolResponsePart) envelope() Envelope { return p.Envelope }
func (p PendingPart) envelope() Envelope      { return p.Envelope }

func (TextPart) isPart()         {}
func (DataPart) isPart()         {}
func (MediaPart) isPart()        {}
func (ToolRequestPart) isPart()  {}
func (ToolResponsePart) isPart() {}
func (PendingPart) isPart()      {}

// NewTextPart creates a text part.
func NewTextPart(text string) TextPart {
	return TextPart{Text: text}
}

// NewDataPart creates a structured data part.
func NewDataPart(data any) DataPart {
	return DataPart{Data: data}
}

// NewMediaPart creates a media part. The URL is validated when the part is encoded.
func NewMediaPart(url, contentType string) MediaPart {
	return MediaPart{Media: Media{URL: url, ContentType: contentType}}
}

// NewToolRequestPart creates a tool request part.
func NewToolRequestPart(name string, input any, ref string) ToolRequestPart {
	return ToolRequestPart{ToolRequest: ToolRequest{Name: name, Input: input, Ref: ref}}
}

// NewToolResponsePart creates a tool response part.
func NewToolResponsePart(name string, output any, ref string) ToolResponsePart {
	return ToolResponsePart{ToolResponse: ToolResponse{Name: name, Output: output, Ref: ref}}
}

// NewPendingPart creates a pending part carrying the given metadata.
// A "pending" entry in metadata is rejected when the part is encoded.
func NewPendingPart(metadata map[string]any) PendingPart {
	if len(metadata) == 0 {
		metadata = nil
	}
	return PendingPart{Envelope: Envelope{Metadata: metadata}}
}

// KindOf reports the variant of p, or "" for a nil or pointer part.
func KindOf(p Part) PartKind {
	if !isValuePart(p) {
		return ""
	}
	return p.Kind()
}

// PartMetadata returns the metadata object of any part. Nil and pointer
// parts have none.
func PartMetadata(p Part) map[string]any {
	if !isValuePart(p) {
		return nil
	}
	return p.envelope().Metadata
}

func isValuePart(p Part) bool {
	switch p.(type) {
	case TextPart, DataPart, MediaPart, ToolRequestPart, ToolResponsePart, PendingPart:
		return true
	}
	return false
}

// Common MIME types
const (
	MIMETypeImageJPEG = "image/jpeg"
	MIMETypeImagePNG  = "image/png"
	MIMETypeImageGIF  = "image/gif"
	MIMETypeImageWebP = "image/webp"

	MIMETypeAudioMP3  = "audio/mpeg"
	MIMETypeAudioWAV  = "audio/wav"
	MIMETypeAudioOgg  = "audio/ogg"
	MIMETypeAudioWebM = "audio/webm"

	MIMETypeVideoMP4  = "video/mp4"
	MIMETypeVideoWebM = "video/webm"
	MIMETypeVideoOgg  = "video/ogg"

	MIMETypePDF = "application/pdf"
)

// ResolvedContentType returns ContentType, or a type inferred from the URL
// when it is empty. Data URIs report their declared type. Returns "" when
// nothing can be inferred.
func (m Media) ResolvedContentType() string {
	if m.ContentType != "" {
		return m.ContentType
	}
	if rest, ok := strings.CutPrefix(m.URL, "data:"); ok {
		mediaType, _, _ := strings.Cut(rest, ",")
		mediaType, _, _ = strings.Cut(mediaType, ";")
		return mediaType
	}

	u := m.URL
	if i := strings.IndexAny(u, "?#"); i != -1 {
		u = u[:i]
	}
	switch strings.ToLower(path.Ext(u)) {
	case ".jpg", ".jpeg":
		return MIMETypeImageJPEG
	case ".png":
		return MIMETypeImagePNG
	case ".gif":
		return MIMETypeImageGIF
	case ".webp":
		return MIMETypeImageWebP
	case ".mp3":
		return MIMETypeAudioMP3
	case ".wav":
		return MIMETypeAudioWAV
	case ".ogg", ".oga":
		return MIMETypeAudioOgg
	case ".weba":
		return MIMETypeAudioWebM
	case ".mp4":
		return MIMETypeVideoMP4
	case ".webm":
		return MIMETypeVideoWebM
	case ".ogv":
		return MIMETypeVideoOgg
	case ".pdf":
		return MIMETypePDF
	default:
		return ""
	}
}
